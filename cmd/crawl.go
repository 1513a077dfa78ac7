package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atelierlab/archharvest/internal/browser"
	"github.com/atelierlab/archharvest/internal/crawl"
	"github.com/atelierlab/archharvest/internal/detail"
	"github.com/atelierlab/archharvest/internal/fetch"
	"github.com/atelierlab/archharvest/internal/gallery"
	"github.com/atelierlab/archharvest/internal/ledger"
	"github.com/atelierlab/archharvest/internal/metrics"
	"github.com/atelierlab/archharvest/internal/record"
	"github.com/atelierlab/archharvest/internal/resolve"
)

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Process eligible ledger rows: details, gallery, status",
		Long: `Walks the ledger sequentially and, for each eligible project, extracts the
detail record, harvests the image gallery, and commits the resulting status
atomically. Interrupt at any point; a later run resumes from the ledger.`,

		RunE: runCrawlCommand,
	}

	cmd.Flags().BoolVar(&cfg.Crawl.Debug, "debug", false,
		"process one eligible row and commit nothing")
	cmd.Flags().BoolVar(&cfg.Crawl.TextOnly, "text-only", false,
		"skip the image stage; revisits downloaded and incomplete rows")
	cmd.Flags().BoolVar(&cfg.Crawl.Redownload, "redownload", false,
		"also revisit downloaded, error, and incomplete rows")
	cmd.Flags().BoolVar(&cfg.Crawl.ResetBeforeCrawl, "reset", false,
		"clear all non-terminal statuses before crawling")

	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	led := ledger.New(cfg.Crawl.LedgerPath, logger)
	if cfg.Crawl.ResetBeforeCrawl {
		if err := led.Reset(); err != nil {
			return err
		}
		logger.Info("ledger statuses reset")
	}

	m := metrics.New()
	m.Serve(ctx, cfg.Metrics.ListenAddr, logger)

	fetcher := fetch.New(fetch.Config{
		UserAgent:       cfg.Site.UserAgent,
		Timeout:         cfg.HTTPTimeout(),
		DownloadTimeout: cfg.DownloadTimeout(),
	}, logger)
	store := record.NewStore(cfg.Storage.DataDir, logger)
	details := detail.NewExtractor(fetcher, store, logger)

	mode := crawl.Mode{
		Debug:      cfg.Crawl.Debug,
		TextOnly:   cfg.Crawl.TextOnly,
		Redownload: cfg.Crawl.Redownload,
	}

	var images crawl.ImageStage
	var closeSession func()
	if !mode.TextOnly {
		// One shared browser session for the whole run; torn down on every
		// exit path, including interrupts.
		session, err := browser.NewSession(browser.Config{
			UserAgent:  cfg.Site.UserAgent,
			NavTimeout: cfg.NavTimeout(),
		})
		if err != nil {
			return err
		}
		closeSession = session.Close
		defer closeSession()

		downloader := resolve.NewDownloader(fetcher, logger)
		images = gallery.NewHarvester(session, downloader, store, gallery.Config{
			WaitTimeout: cfg.WaitTimeout(),
			ImageDelay:  cfg.ImageDelay(),
		}, m, logger)
	}

	orchestrator := crawl.New(crawl.Config{
		BaseURL:      cfg.Site.BaseURL,
		ProjectDelay: cfg.ProjectDelay(),
		Mode:         mode,
	}, led, details, images, m, logger)

	if err := orchestrator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
