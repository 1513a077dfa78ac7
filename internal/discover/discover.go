// Package discover runs the concurrent multi-query listing scrape that seeds
// the ledger: one isolated browser session per search URL, results merged
// into a single deduplicated, classified table.
package discover

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/atelierlab/archharvest/internal/browser"
	"github.com/atelierlab/archharvest/internal/ledger"
	"github.com/atelierlab/archharvest/internal/status"
)

var projectIDPattern = regexp.MustCompile(`/(\d+)/`)

// SessionFactory opens a fresh, isolated browser session for one worker.
// The returned closer must always be called, even on error paths.
type SessionFactory func() (browser.Pager, func(), error)

// Config drives the aggregator.
type Config struct {
	SearchURLs      []string
	MaxWorkers      int
	ScrollWait      time.Duration
	StableScrolls   int
	WaitTimeout     time.Duration
	TogglerSelector string
	LinkSelector    string
}

// Aggregator fans search queries out over a bounded worker pool and merges
// the results.
type Aggregator struct {
	cfg      Config
	sessions SessionFactory
	logger   *zap.Logger
}

// NewAggregator constructs an Aggregator.
func NewAggregator(cfg Config, sessions SessionFactory, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 10
	}
	if cfg.StableScrolls <= 0 {
		cfg.StableScrolls = 3
	}
	if cfg.ScrollWait <= 0 {
		cfg.ScrollWait = 3 * time.Second
	}
	return &Aggregator{cfg: cfg, sessions: sessions, logger: logger}
}

// Run scrapes every configured search URL and returns the deduplicated,
// classified table. An empty table is not an error; the empty return value
// tells the caller that no ledger should be written.
func (a *Aggregator) Run(ctx context.Context) []ledger.Row {
	table := NewAccumulator()

	workers := a.cfg.MaxWorkers
	if n := len(a.cfg.SearchURLs); n < workers {
		workers = n
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for searchURL := range jobs {
				a.runQuery(ctx, searchURL, table)
			}
		}()
	}

	for _, searchURL := range a.cfg.SearchURLs {
		select {
		case jobs <- searchURL:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	merged := Dedupe(table.Snapshot())
	a.logger.Info("discovery merge complete",
		zap.Int("raw_rows", table.Len()),
		zap.Int("unique_rows", len(merged)))

	artMarked, researchMarked := Classify(merged)
	a.logger.Info("discovery classification complete",
		zap.Int("art_marked_delete", artMarked),
		zap.Int("research_marked_delete", researchMarked))

	return merged
}

// runQuery handles one search URL in its own browser session. Failures are
// logged and confined to this URL's batch.
func (a *Aggregator) runQuery(ctx context.Context, searchURL string, table *Accumulator) {
	logger := a.logger.With(zap.String("search_url", searchURL))
	logger.Info("starting discovery query")

	sess, closeSess, err := a.sessions()
	if err != nil {
		logger.Error("open browser session", zap.Error(err))
		return
	}
	defer closeSess()

	if err := sess.Navigate(ctx, searchURL); err != nil {
		logger.Error("navigate listing", zap.Error(err))
		return
	}
	if !sess.Click(ctx, a.cfg.TogglerSelector, a.cfg.WaitTimeout) {
		logger.Warn("list layout toggler not clickable, continuing with default layout")
	}
	if err := sess.ScrollUntilStable(ctx, a.cfg.ScrollWait, a.cfg.StableScrolls); err != nil {
		logger.Error("scroll listing", zap.Error(err))
		return
	}

	html, err := sess.HTML(ctx)
	if err != nil {
		logger.Error("capture listing dom", zap.Error(err))
		return
	}

	rows, err := a.extractRows(searchURL, html)
	if err != nil {
		logger.Error("extract listing rows", zap.Error(err))
		return
	}
	if len(rows) == 0 {
		logger.Warn("no results found")
		return
	}

	table.Append(rows)
	logger.Info("discovery query complete", zap.Int("rows", len(rows)))
}

// extractRows pulls project links out of a rendered listing document and
// parses their numeric project ids. Links without a parseable id are dropped
// with a warning; one bad link never aborts the whole batch.
func (a *Aggregator) extractRows(searchURL, html string) ([]ledger.Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	keyword := keywordSource(searchURL)
	base, _ := url.Parse(searchURL)

	var rows []ledger.Row
	doc.Find(a.cfg.LinkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		link := href
		if base != nil {
			if abs, perr := base.Parse(href); perr == nil {
				link = abs.String()
			}
		}
		match := projectIDPattern.FindStringSubmatch(link)
		if match == nil {
			a.logger.Warn("could not parse project id from link", zap.String("link", link))
			return
		}
		rows = append(rows, ledger.Row{
			ProjectID: match[1],
			Link:      link,
			Keyword:   keyword,
			Status:    status.Empty,
		})
	})
	return rows, nil
}

// keywordSource derives a readable provenance label from the search URL.
func keywordSource(searchURL string) string {
	if idx := strings.Index(searchURL, "?q="); idx >= 0 {
		return "q=" + searchURL[idx+len("?q="):]
	}
	if idx := strings.LastIndex(searchURL, "/"); idx >= 0 {
		return "category/" + searchURL[idx+1:]
	}
	return searchURL
}
