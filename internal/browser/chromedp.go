package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Config controls a headless browser session.
type Config struct {
	UserAgent  string
	NavTimeout time.Duration
}

// Session drives one headless Chrome tab via chromedp. The orchestrator
// shares a single Session across all projects to avoid per-page browser
// startup cost; discovery gives each worker its own isolated Session.
type Session struct {
	cfg         Config
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
}

// NewSession starts a browser process and opens one tab, verifying the
// browser actually launches before returning.
func NewSession(cfg Config) (*Session, error) {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 45 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("browser warmup: %w", err)
	}

	return &Session{
		cfg:         cfg,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}, nil
}

// Close tears down the tab and the browser process. Safe on a nil receiver so
// every exit path can call it unconditionally.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.tabCancel()
	s.allocCancel()
}

// Navigate loads url in the session tab, bounded by the configured
// navigation timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.bounded(ctx, s.cfg.NavTimeout)
	defer cancel()

	if err := chromedp.Run(runCtx,
		s.networkSetupAction(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// networkSetupAction enables the network domain and applies the user-agent
// override before navigation. The exec allocator flag alone does not cover
// requests issued by in-page scripts.
func (s *Session) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if s.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(s.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

// WaitVisible reports whether selector became visible within timeout.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) bool {
	runCtx, cancel := s.bounded(ctx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	return err == nil
}

// Click clicks selector if it becomes visible within timeout.
func (s *Session) Click(ctx context.Context, selector string, timeout time.Duration) bool {
	runCtx, cancel := s.bounded(ctx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	return err == nil
}

// ScrollUntilStable scrolls to the bottom until the content height stops
// growing for stableRounds consecutive attempts. The retry bound keeps a
// stuck page from spinning forever.
func (s *Session) ScrollUntilStable(ctx context.Context, wait time.Duration, stableRounds int) error {
	if stableRounds <= 0 {
		stableRounds = 1
	}

	runCtx, stop := mergeCancel(s.tabCtx, ctx)
	defer stop()

	var lastHeight int64
	if err := chromedp.Run(runCtx,
		chromedp.Evaluate(`document.body.scrollHeight`, &lastHeight),
	); err != nil {
		return fmt.Errorf("measure page height: %w", err)
	}

	stable := 0
	for stable < stableRounds {
		var height int64
		if err := chromedp.Run(runCtx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(wait),
			chromedp.Evaluate(`document.body.scrollHeight`, &height),
		); err != nil {
			return fmt.Errorf("scroll page: %w", err)
		}
		if height == lastHeight {
			stable++
		} else {
			stable = 0
		}
		lastHeight = height
	}
	return nil
}

// HTML returns the serialized DOM of the current page.
func (s *Session) HTML(ctx context.Context) (string, error) {
	runCtx, stop := mergeCancel(s.tabCtx, ctx)
	defer stop()

	var html string
	if err := chromedp.Run(runCtx,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("capture dom: %w", err)
	}
	return html, nil
}

func (s *Session) bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, stop := mergeCancel(s.tabCtx, ctx)
	if timeout <= 0 {
		return runCtx, stop
	}
	timed, cancel := context.WithTimeout(runCtx, timeout)
	return timed, func() {
		cancel()
		stop()
	}
}

// mergeCancel returns tab as-is but canceled early if caller finishes first.
// chromedp actions must run on the tab's context chain, so the caller context
// cannot be used directly.
func mergeCancel(tab, caller context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(tab)
	if caller == nil {
		return merged, cancel
	}
	stop := make(chan struct{})
	go func() {
		select {
		case <-caller.Done():
			cancel()
		case <-stop:
		}
	}()
	return merged, func() {
		close(stop)
		cancel()
	}
}
