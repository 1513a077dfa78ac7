package enrich

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/atelierlab/archharvest/internal/record"
)

// Enricher runs model extraction over harvested project records.
type Enricher struct {
	client *Client
	store  *record.Store
	logger *zap.Logger
}

// NewEnricher constructs an Enricher.
func NewEnricher(client *Client, store *record.Store, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{client: client, store: store, logger: logger}
}

// EnrichProject extracts structured fields from one project's description and
// merges them into {id}.json. Existing keys are never clobbered.
func (e *Enricher) EnrichProject(ctx context.Context, projectID string) error {
	merged, err := e.store.ReadMerged(projectID)
	if err != nil {
		return err
	}
	if len(merged) == 0 {
		details, derr := e.store.ReadDetails(projectID)
		if derr != nil {
			return fmt.Errorf("no record to enrich for %s: %w", projectID, derr)
		}
		merged = details
	}

	description := joinDescription(merged["Description"])
	if description == "" {
		return fmt.Errorf("project %s has no description to enrich", projectID)
	}

	fields, err := e.client.ExtractFields(ctx, description)
	if err != nil {
		return fmt.Errorf("extract fields for %s: %w", projectID, err)
	}

	added := 0
	for key, value := range fields {
		if value == "" {
			continue
		}
		if _, exists := merged[key]; exists {
			continue
		}
		merged[key] = value
		added++
	}
	if err := e.store.WriteMerged(projectID, merged); err != nil {
		return err
	}

	e.logger.Info("project enriched",
		zap.String("project_id", projectID),
		zap.Int("fields_added", added))
	return nil
}

// EnrichAll sweeps every project directory under dataDir. Per-project
// failures are logged and skipped.
func (e *Enricher) EnrichAll(ctx context.Context, dataDir string) error {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return fmt.Errorf("read data dir %s: %w", dataDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.EnrichProject(ctx, entry.Name()); err != nil {
			e.logger.Warn("enrichment skipped",
				zap.String("project_id", entry.Name()), zap.Error(err))
		}
	}
	return nil
}

// joinDescription flattens the stored description, which is a list of
// paragraphs, into one prompt-ready string.
func joinDescription(v any) string {
	switch d := v.(type) {
	case string:
		return strings.TrimSpace(d)
	case []any:
		parts := make([]string, 0, len(d))
		for _, item := range d {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}
