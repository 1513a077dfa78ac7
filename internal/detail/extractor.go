// Package detail extracts the structured metadata record from one project
// page and persists it keyed by project id.
package detail

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/atelierlab/archharvest/internal/fetch"
	"github.com/atelierlab/archharvest/internal/record"
	"github.com/atelierlab/archharvest/internal/status"
)

// Page structure selectors for the listing site's project pages.
const (
	titleSelector    = ".afd-title-big--bmargin-big"
	categorySelector = ".afd-specs__header-category a"
	locationSelector = ".afd-specs__header-location"
	specItemSelector = ".afd-specs__item"
	specKeySelector  = ".afd-specs__key"
	specValSelector  = ".afd-specs__value"
	contentSelector  = "div.the-content"
)

var (
	projectIDFallback = regexp.MustCompile(`/(\d+)/`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
)

// UnknownProjectID is the sentinel id used when a page URL carries no
// recognizable numeric identifier. Not being able to derive an id is not a
// hard failure; the record is still written.
const UnknownProjectID = "unknown_project"

// Extractor scrapes one project page over plain HTTP.
type Extractor struct {
	fetcher fetch.Fetcher
	store   *record.Store
	logger  *zap.Logger
}

// NewExtractor constructs an Extractor.
func NewExtractor(fetcher fetch.Fetcher, store *record.Store, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{fetcher: fetcher, store: store, logger: logger}
}

// Scrape fetches link, extracts the detail record, and persists it. Transport
// failures return an error immediately with no retry; retries are the
// orchestrator's or the operator's responsibility. Structural gaps in the
// page degrade to a sparser record instead of failing.
func (e *Extractor) Scrape(ctx context.Context, link string) error {
	body, err := e.fetcher.Fetch(ctx, link)
	if err != nil {
		return fmt.Errorf("detail page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse detail page %s: %v: %w", link, err, status.ErrParse)
	}

	projectID := ProjectIDFromURL(link)
	if projectID == UnknownProjectID {
		e.logger.Warn("could not determine project id, using sentinel",
			zap.String("url", link))
	}

	rec := Extract(doc, link)
	rec.ProjectID = projectID

	if err := e.store.WriteDetails(projectID, rec); err != nil {
		return fmt.Errorf("persist detail record: %w", err)
	}
	e.logger.Info("detail record saved",
		zap.String("project_id", projectID),
		zap.String("title", rec.Title))
	return nil
}

// Extract pulls the detail fields out of a parsed project page. Pure; the
// browser and network never appear here.
func Extract(doc *goquery.Document, link string) record.Detail {
	rec := record.Detail{ProjectURL: link}

	if title := normalize(doc.Find(titleSelector).First().Text()); title != "" {
		rec.Title = strings.TrimSpace(strings.SplitN(title, "/", 2)[0])
	}

	doc.Find(categorySelector).Each(func(_ int, sel *goquery.Selection) {
		if cat := normalize(sel.Text()); cat != "" {
			rec.Categories = append(rec.Categories, cat)
		}
	})

	if location := doc.Find(locationSelector).First(); location.Length() > 0 {
		parts := strings.Split(normalize(location.Text()), ",")
		if len(parts) > 0 {
			rec.City = strings.TrimSpace(parts[0])
		}
		rec.Country = normalize(location.Find("a").First().Text())
	}

	doc.Find(specItemSelector).Each(func(_ int, item *goquery.Selection) {
		key := normalize(item.Find(specKeySelector).First().Text())
		value := item.Find(specValSelector).First()
		if key == "" || value.Length() == 0 {
			return
		}
		switch {
		case strings.Contains(key, "Architects"):
			value.Find("a").Each(func(_ int, a *goquery.Selection) {
				if name := normalize(a.Text()); name != "" {
					rec.Architects = append(rec.Architects, name)
				}
			})
		case strings.Contains(key, "Area"):
			if area := normalize(strings.ReplaceAll(value.Text(), "m²", "")); area != "" {
				rec.Area = area + " m²"
			}
		case strings.Contains(key, "Year"):
			rec.Year = normalize(value.Text())
		}
	})

	rec.Description = CleanDescription(descriptionLines(doc))
	return rec
}

// descriptionLines prefers the primary content block's direct paragraphs and
// falls back to every paragraph on the page when the block yields nothing.
func descriptionLines(doc *goquery.Document) []string {
	var lines []string
	collect := func(_ int, p *goquery.Selection) {
		if text := normalize(p.Text()); text != "" {
			lines = append(lines, text)
		}
	}

	doc.Find(contentSelector + " > p").Each(collect)
	if len(lines) == 0 {
		doc.Find("p").Each(collect)
	}
	return lines
}

// ProjectIDFromURL derives the stable numeric project id from a page URL:
// the first all-digit path segment, a /digits/ regex fallback, else the
// sentinel.
func ProjectIDFromURL(link string) string {
	if u, err := url.Parse(link); err == nil {
		for _, part := range strings.Split(strings.Trim(u.Path, "/"), "/") {
			if part != "" && isAllDigits(part) {
				return part
			}
		}
	}
	if match := projectIDFallback.FindStringSubmatch(link); match != nil {
		return match[1]
	}
	return UnknownProjectID
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
