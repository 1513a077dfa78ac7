// Package fetch provides the plain HTTP fetching capability used for detail
// pages, gallery entry pages, and image downloads. Listing pages that need
// JavaScript go through internal/browser instead.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/atelierlab/archharvest/internal/status"
)

// Fetcher retrieves page bodies over HTTP. Implementations must treat every
// returned error as a transport failure; structural problems belong to the
// callers that parse the body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Download(ctx context.Context, url, dest string) error
}

// Config controls the colly-backed fetcher.
type Config struct {
	UserAgent       string
	Timeout         time.Duration
	DownloadTimeout time.Duration
}

// CollyFetcher implements Fetcher with a cloned colly collector per request.
type CollyFetcher struct {
	base     *colly.Collector
	download *colly.Collector
	logger   *zap.Logger
}

// New constructs a configured colly-based Fetcher.
func New(cfg Config, logger *zap.Logger) *CollyFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := newCollector(cfg.UserAgent, cfg.Timeout)
	download := newCollector(cfg.UserAgent, cfg.DownloadTimeout)

	return &CollyFetcher{
		base:     base,
		download: download,
		logger:   logger,
	}
}

func newCollector(userAgent string, timeout time.Duration) *colly.Collector {
	opts := []colly.CollectorOption{}
	if userAgent != "" {
		opts = append(opts, colly.UserAgent(userAgent))
	}
	c := colly.NewCollector(opts...)
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	c.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	})
	c.SetRequestTimeout(timeout)
	return c
}

// Fetch retrieves url and returns the response body.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.visit(ctx, f.base, url)
}

// Download retrieves url and writes the body to dest. The write happens only
// after a successful fetch, so a failed download never leaves a partial file
// behind for the metadata to point at.
func (f *CollyFetcher) Download(ctx context.Context, url, dest string) error {
	body, err := f.visit(ctx, f.download, url)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

func (f *CollyFetcher) visit(ctx context.Context, base *colly.Collector, url string) ([]byte, error) {
	collector := base.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() { resultCh <- res })
	}

	collector.OnResponse(func(r *colly.Response) {
		send(fetchResult{body: append([]byte{}, r.Body...)})
	})
	collector.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(fetchResult{err: err})
	})

	if err := collector.Visit(url); err != nil {
		return nil, fmt.Errorf("fetch %s: %v: %w", url, err, status.ErrTransport)
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.err != nil {
			return nil, fmt.Errorf("fetch %s: %v: %w", url, res.err, status.ErrTransport)
		}
		return res.body, nil
	default:
		return nil, fmt.Errorf("fetch %s: no response produced: %w", url, status.ErrTransport)
	}
}

type fetchResult struct {
	body []byte
	err  error
}
