// Package metrics exposes prometheus counters for the harvest pipeline and
// an optional HTTP endpoint serving them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the pipeline counters on a private registry. All methods are
// safe on a nil receiver so wiring stays optional.
type Metrics struct {
	registry *prometheus.Registry

	projectsProcessed *prometheus.CounterVec
	imagesDownloaded  prometheus.Counter
	imagesFailed      prometheus.Counter
	discoveryRows     *prometheus.CounterVec
}

// New registers the pipeline counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		projectsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archharvest",
			Name:      "projects_processed_total",
			Help:      "Projects processed by the crawl loop, labeled by final status.",
		}, []string{"status"}),
		imagesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "archharvest",
			Name:      "images_downloaded_total",
			Help:      "Gallery images downloaded successfully.",
		}),
		imagesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "archharvest",
			Name:      "images_failed_total",
			Help:      "Gallery items that failed to download.",
		}),
		discoveryRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archharvest",
			Name:      "discovery_rows_total",
			Help:      "Discovery rows merged into the ledger, labeled by disposition.",
		}, []string{"disposition"}),
	}
	m.registry.MustRegister(
		m.projectsProcessed,
		m.imagesDownloaded,
		m.imagesFailed,
		m.discoveryRows,
	)
	return m
}

// ProjectProcessed counts one project reaching a final status.
func (m *Metrics) ProjectProcessed(finalStatus string) {
	if m == nil {
		return
	}
	if finalStatus == "" {
		finalStatus = "empty"
	}
	m.projectsProcessed.WithLabelValues(finalStatus).Inc()
}

// ImageDownloaded counts one successful gallery image download.
func (m *Metrics) ImageDownloaded() {
	if m == nil {
		return
	}
	m.imagesDownloaded.Inc()
}

// ImageFailed counts one failed gallery item.
func (m *Metrics) ImageFailed() {
	if m == nil {
		return
	}
	m.imagesFailed.Inc()
}

// DiscoveryRows counts merged discovery rows by disposition (kept, delete).
func (m *Metrics) DiscoveryRows(disposition string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.discoveryRows.WithLabelValues(disposition).Add(float64(n))
}

// Serve starts an HTTP listener exposing /metrics and /healthz, shutting down
// when ctx finishes. A closed server is not an error.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) {
	if m == nil || addr == "" {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("metrics listener started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics listener failed", zap.Error(err))
		}
	}()
}
