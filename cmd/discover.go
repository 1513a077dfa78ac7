package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atelierlab/archharvest/internal/browser"
	"github.com/atelierlab/archharvest/internal/discover"
	"github.com/atelierlab/archharvest/internal/ledger"
	"github.com/atelierlab/archharvest/internal/metrics"
	"github.com/atelierlab/archharvest/internal/status"
)

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Build the project ledger from the configured search queries",
		Long: `Runs every configured search query concurrently, each in an isolated
headless browser session, merges the results into one deduplicated table,
classifies out unwanted venues, and writes the ledger CSV. An empty result
writes no file.`,

		RunE: runDiscoverCommand,
	}
}

func runDiscoverCommand(cmd *cobra.Command, _ []string) error {
	sessions := discover.SessionFactory(func() (browser.Pager, func(), error) {
		sess, err := browser.NewSession(browser.Config{
			UserAgent:  cfg.Site.UserAgent,
			NavTimeout: cfg.NavTimeout(),
		})
		if err != nil {
			return nil, nil, err
		}
		return sess, sess.Close, nil
	})

	aggregator := discover.NewAggregator(discover.Config{
		SearchURLs:      cfg.SearchURLs(),
		MaxWorkers:      cfg.Discovery.MaxWorkers,
		ScrollWait:      cfg.ScrollWait(),
		StableScrolls:   cfg.Discovery.StableScrolls,
		WaitTimeout:     cfg.WaitTimeout(),
		TogglerSelector: cfg.Discovery.TogglerSelector,
		LinkSelector:    cfg.Discovery.LinkSelector,
	}, sessions, logger)

	rows := aggregator.Run(cmd.Context())
	if len(rows) == 0 {
		logger.Warn("no results found for any query, ledger not written")
		return nil
	}

	m := metrics.New()
	kept, marked := 0, 0
	for _, row := range rows {
		if row.Status == status.Delete {
			marked++
		} else {
			kept++
		}
	}
	m.DiscoveryRows("kept", kept)
	m.DiscoveryRows("delete", marked)

	led := ledger.New(cfg.Crawl.LedgerPath, logger)
	if err := led.WriteAll(rows); err != nil {
		return err
	}
	logger.Info("ledger written",
		zap.String("path", cfg.Crawl.LedgerPath),
		zap.Int("rows", len(rows)),
		zap.Int("kept", kept),
		zap.Int("marked_delete", marked))
	return nil
}
