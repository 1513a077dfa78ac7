// Package cmd defines the CLI commands for the archharvest executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atelierlab/archharvest/internal/config"
	"github.com/atelierlab/archharvest/internal/logging"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archharvest",
		Short: "Resumable harvester for architectural project records",
		Long: `archharvest discovers project pages on a listing site, then crawls each
project for structured metadata and a full image gallery, tracking per-project
progress in a durable CSV ledger so interrupted runs resume where they left off.`,

		SilenceUsage: true,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err = logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults + env)")

	cmd.AddCommand(newDiscoverCmd())
	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newMergeCmd())
	cmd.AddCommand(newEnrichCmd())

	return cmd
}

// Execute is the entry point invoked by main.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
