package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atelierlab/archharvest/internal/record"
)

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Fold image metadata into merged records and mirror the collection",
		Long: `For every harvested project, writes the image metadata list into the
project's merged JSON record under an "images" key and mirrors the record
into the flat collection directory.`,

		RunE: func(_ *cobra.Command, _ []string) error {
			store := record.NewStore(cfg.Storage.DataDir, logger)
			sum, err := store.MergeAll(cfg.Storage.CollectionDir)
			if err != nil {
				return err
			}
			logger.Info("merge complete",
				zap.Int("projects", sum.Projects),
				zap.Int("updated", sum.Updated),
				zap.Int("created", sum.Created),
				zap.Int("missing_images", sum.MissingImages),
				zap.Int("mirrored", sum.Mirrored))
			return nil
		},
	}
}
