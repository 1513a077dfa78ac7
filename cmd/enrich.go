package cmd

import (
	"github.com/spf13/cobra"

	"github.com/atelierlab/archharvest/internal/enrich"
	"github.com/atelierlab/archharvest/internal/record"
)

func newEnrichCmd() *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Extract structured fields from descriptions via the model API",
		Long: `Sends each harvested project's description to the configured language-model
endpoint and merges the returned fields into the project's merged record.
Requires enrich.api_key (or ARCHHARVEST_ENRICH_API_KEY).`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := enrich.NewClient(enrich.Config{
				APIKey:   cfg.Enrich.APIKey,
				Endpoint: cfg.Enrich.Endpoint,
				Model:    cfg.Enrich.Model,
			}, logger)
			if err != nil {
				return err
			}

			store := record.NewStore(cfg.Storage.DataDir, logger)
			enricher := enrich.NewEnricher(client, store, logger)

			if projectID != "" {
				return enricher.EnrichProject(cmd.Context(), projectID)
			}
			return enricher.EnrichAll(cmd.Context(), cfg.Storage.DataDir)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "enrich a single project id instead of all")
	return cmd
}
