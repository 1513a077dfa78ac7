// Package gallery enumerates the thumbnail links on a project page and
// downloads each referenced image through the resolver.
package gallery

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atelierlab/archharvest/internal/browser"
	"github.com/atelierlab/archharvest/internal/metrics"
	"github.com/atelierlab/archharvest/internal/record"
	"github.com/atelierlab/archharvest/internal/resolve"
)

const (
	thumbsMarker      = ".gallery-thumbs"
	thumbItemSelector = "li.gallery-thumbs-item"
	thumbLinkSelector = "a.gallery-thumbs-link"
)

// Config controls the harvester.
type Config struct {
	WaitTimeout time.Duration
	ImageDelay  time.Duration
}

// Harvester walks a project's gallery thumbnails and accumulates one image
// record per successful download, in page order.
type Harvester struct {
	session    browser.Pager
	downloader *resolve.Downloader
	store      *record.Store
	limiter    *rate.Limiter
	cfg        Config
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewHarvester constructs a Harvester sharing the orchestrator's browser
// session.
func NewHarvester(
	session browser.Pager,
	downloader *resolve.Downloader,
	store *record.Store,
	cfg Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Harvester {
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.ImageDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.ImageDelay), 1)
	}
	return &Harvester{
		session:    session,
		downloader: downloader,
		store:      store,
		limiter:    limiter,
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
	}
}

// Harvest processes the gallery of one project page. The returned flag is the
// overall image-stage outcome: true when at least one image downloaded, or
// when there were legitimately zero items to fetch; false only when thumbnail
// enumeration itself failed transport-wise, or items existed but none
// downloaded.
func (h *Harvester) Harvest(ctx context.Context, projectID, pageURL string) bool {
	logger := h.logger.With(
		zap.String("project_id", projectID),
		zap.String("url", pageURL))

	saveDir, err := h.store.ProjectDir(projectID)
	if err != nil {
		logger.Error("create image directory", zap.Error(err))
		return false
	}

	items, err := h.Enumerate(ctx, pageURL)
	if err != nil {
		logger.Error("thumbnail enumeration failed", zap.Error(err))
		return false
	}
	if len(items) == 0 {
		logger.Info("no gallery items to download")
		return true
	}
	logger.Info("gallery items found", zap.Int("count", len(items)))

	var images []record.Image
	for i, item := range items {
		if err := h.limiter.Wait(ctx); err != nil {
			logger.Warn("image pacing interrupted", zap.Error(err))
			break
		}
		// Ordinal naming is 1-based and keeps page order; failed items leave
		// gaps rather than renumbering later successes.
		base := fmt.Sprintf("%s_%02d", projectID, i+1)
		image, err := h.downloader.DownloadTarget(ctx, item.Href, saveDir, base)
		if err != nil {
			h.metrics.ImageFailed()
			logger.Warn("gallery item failed",
				zap.Int("ordinal", i+1),
				zap.String("item_url", item.Href),
				zap.Error(err))
			continue
		}
		h.metrics.ImageDownloaded()
		images = append(images, image)
	}

	logger.Info("image downloads complete",
		zap.Int("succeeded", len(images)),
		zap.Int("total", len(items)))

	if len(images) == 0 {
		return false
	}
	if err := h.store.WriteImages(projectID, images); err != nil {
		// Downloads succeeded; the metadata write failure is fatal to this
		// persistence step only.
		logger.Error("persist image metadata", zap.Error(err))
	}
	return true
}

// Enumerate loads the project page in the shared browser session and returns
// its thumbnail items in page order. Only transport-level failures return an
// error; a missing gallery section yields an empty list.
func (h *Harvester) Enumerate(ctx context.Context, pageURL string) ([]record.GalleryItem, error) {
	if err := h.session.Navigate(ctx, pageURL); err != nil {
		return nil, fmt.Errorf("load project page: %w", err)
	}
	if !h.session.WaitVisible(ctx, thumbsMarker, h.cfg.WaitTimeout) {
		h.logger.Warn("timeout waiting for gallery thumbnails, parsing anyway",
			zap.String("url", pageURL))
	}
	html, err := h.session.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture project page: %w", err)
	}
	return ExtractItems(pageURL, html), nil
}

// ExtractItems parses thumbnail entries out of a rendered project page.
// Entries without a resolvable link, or whose link is the page itself, are
// dropped. Pure and independent of the browser.
func ExtractItems(pageURL, html string) []record.GalleryItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(pageURL)

	var items []record.GalleryItem
	doc.Find(thumbItemSelector).Each(func(i int, li *goquery.Selection) {
		link := li.Find(thumbLinkSelector).First()
		if link.Length() == 0 {
			return
		}
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		if base != nil {
			if abs, perr := base.Parse(href); perr == nil {
				href = abs.String()
			}
		}
		if href == pageURL {
			return
		}

		title := strings.TrimSpace(link.AttrOr("title", ""))
		if title == "" {
			title = strings.TrimSpace(link.Find("img").First().AttrOr("alt", ""))
		}
		if title == "" {
			title = fmt.Sprintf("Untitled_%d", i+1)
		}

		items = append(items, record.GalleryItem{Href: href, Title: title})
	})
	return items
}
