// Package crawl sequences the per-project pipeline over the ledger: detail
// extraction, then gallery harvesting, then an atomic status commit. The loop
// is single-threaded by design (site politeness) and resumable: the ledger is
// the single source of truth for what must still be done.
package crawl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atelierlab/archharvest/internal/ledger"
	"github.com/atelierlab/archharvest/internal/metrics"
	"github.com/atelierlab/archharvest/internal/status"
)

// DetailStage scrapes one project page's textual metadata.
type DetailStage interface {
	Scrape(ctx context.Context, link string) error
}

// ImageStage harvests one project page's gallery. The returned flag is the
// overall image-stage outcome as defined by the gallery package.
type ImageStage interface {
	Harvest(ctx context.Context, projectID, pageURL string) bool
}

// Mode selects which ledger rows a run may process.
//
// Normal runs process only empty-status rows. Redownload additionally
// revisits downloaded, error, and incomplete rows. Text-only revisits
// downloaded and incomplete rows but runs no image stage. No mode ever
// touches delete or duplicate rows. Debug stops after the first eligible row
// and never commits.
type Mode struct {
	Debug      bool
	TextOnly   bool
	Redownload bool
}

// Eligible reports whether a row with the given status is processed under
// this mode.
func (m Mode) Eligible(code status.Code) bool {
	if code.Terminal() {
		return false
	}
	switch code {
	case status.Empty:
		return true
	case status.Downloaded, status.Incomplete:
		return m.Redownload || m.TextOnly
	case status.Error:
		return m.Redownload
	default:
		return false
	}
}

// Config controls the orchestrator.
type Config struct {
	BaseURL      string
	ProjectDelay time.Duration
	Mode         Mode
}

// Orchestrator walks the ledger and drives both stages per eligible row.
type Orchestrator struct {
	cfg     Config
	ledger  *ledger.Ledger
	details DetailStage
	images  ImageStage
	metrics *metrics.Metrics
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New constructs an Orchestrator. images may be nil in text-only mode.
func New(
	cfg Config,
	led *ledger.Ledger,
	details DetailStage,
	images ImageStage,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.ProjectDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.ProjectDelay), 1)
	}
	return &Orchestrator{
		cfg:     cfg,
		ledger:  led,
		details: details,
		images:  images,
		metrics: m,
		limiter: limiter,
		logger:  logger.With(zap.String("run_id", uuid.NewString())),
	}
}

// Run processes every eligible ledger row in order. Only ledger-structure
// failures abort the run; per-project failures become row statuses.
func (o *Orchestrator) Run(ctx context.Context) error {
	rows, err := o.ledger.Load()
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	o.logger.Info("crawl starting",
		zap.Int("rows", len(rows)),
		zap.Bool("debug", o.cfg.Mode.Debug),
		zap.Bool("text_only", o.cfg.Mode.TextOnly),
		zap.Bool("redownload", o.cfg.Mode.Redownload))

	processed := 0
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !o.cfg.Mode.Eligible(row.Status) {
			o.logger.Debug("skipping project",
				zap.String("project_id", row.ProjectID),
				zap.String("status", string(row.Status)))
			continue
		}

		o.logger.Info("processing project",
			zap.String("project_id", row.ProjectID),
			zap.Int("position", i+1),
			zap.Int("total", len(rows)))

		final := o.processRow(ctx, row)
		processed++
		o.metrics.ProjectProcessed(string(final))

		if o.cfg.Mode.Debug {
			o.logger.Info("debug mode: stopping after first eligible row, status not committed",
				zap.String("project_id", row.ProjectID),
				zap.String("status", string(final)))
			break
		}
		if err := o.ledger.Commit(row.ProjectID, final); err != nil {
			o.logger.Error("ledger commit failed",
				zap.String("project_id", row.ProjectID), zap.Error(err))
		}

		if err := o.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	o.logger.Info("crawl finished", zap.Int("processed", processed))
	return nil
}

// processRow runs the two stages for one row and computes its final status
// per the transition table:
//
//	detail failed                      -> error
//	detail ok, image stage degraded    -> incomplete
//	detail ok, images ok or none found -> downloaded
func (o *Orchestrator) processRow(ctx context.Context, row ledger.Row) status.Code {
	link := o.projectLink(row)
	logger := o.logger.With(
		zap.String("project_id", row.ProjectID),
		zap.String("url", link))

	if err := o.details.Scrape(ctx, link); err != nil {
		logger.Error("detail stage failed", zap.Error(err))
		return status.Error
	}

	if o.cfg.Mode.TextOnly {
		// No image stage ran, so there is no basis to claim a complete
		// download: rows keep their prior status, fresh rows land incomplete.
		if row.Status != status.Empty {
			return row.Status
		}
		return status.Incomplete
	}

	if o.images.Harvest(ctx, row.ProjectID, link) {
		return status.Downloaded
	}
	logger.Warn("image stage degraded")
	return status.Incomplete
}

// projectLink prefers the discovered link and falls back to base URL + id.
func (o *Orchestrator) projectLink(row ledger.Row) string {
	if row.Link != "" {
		return row.Link
	}
	return fmt.Sprintf("%s/%s",
		strings.TrimRight(o.cfg.BaseURL, "/"),
		strings.Trim(row.ProjectID, "/"))
}
