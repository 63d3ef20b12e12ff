// internal/monitoring/metrics.go

// Package monitoring exposes Prometheus metrics for crawl runs.
package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shelfscout/shelfscout/internal/utils"
)

var metricsLogger = utils.NewComponentLogger("metrics")

// Metrics holds the crawl counters. All methods are safe on a nil receiver so
// callers need no enabled-checks at every increment site.
type Metrics struct {
	registry *prometheus.Registry

	pagesScraped       *prometheus.CounterVec
	productsReconciled *prometheus.CounterVec
	retries            *prometheus.CounterVec
	skips              *prometheus.CounterVec
	runDuration        prometheus.Histogram
}

// NewMetrics creates the metric set on its own registry, keeping the default
// registry's Go runtime collectors out of the exposition.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		pagesScraped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shelfscout_products_scraped_total",
			Help: "Product pages fully scraped, by site.",
		}, []string{"site"}),
		productsReconciled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shelfscout_products_reconciled_total",
			Help: "Products written to the store, by site and outcome.",
		}, []string{"site", "outcome"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shelfscout_retries_total",
			Help: "Retried operations, by site and operation kind.",
		}, []string{"site", "operation"}),
		skips: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shelfscout_skips_total",
			Help: "Operations abandoned after exhausting retries, by site and operation kind.",
		}, []string{"site", "operation"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shelfscout_run_duration_seconds",
			Help:    "Duration of complete crawl runs.",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		}),
	}
}

// PageScraped records one fully scraped product page.
func (m *Metrics) PageScraped(site string) {
	if m == nil {
		return
	}
	m.pagesScraped.WithLabelValues(site).Inc()
}

// ProductReconciled records one store write.
func (m *Metrics) ProductReconciled(site, outcome string) {
	if m == nil {
		return
	}
	m.productsReconciled.WithLabelValues(site, outcome).Inc()
}

// Retry records one retried operation.
func (m *Metrics) Retry(site, operation string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(site, operation).Inc()
}

// Skip records one operation abandoned after its last attempt failed.
func (m *Metrics) Skip(site, operation string) {
	if m == nil {
		return
	}
	m.skips.WithLabelValues(site, operation).Inc()
}

// RunCompleted records the duration of a finished crawl run.
func (m *Metrics) RunCompleted(duration time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(duration.Seconds())
}

// Handler returns the exposition handler for this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	metricsLogger.Infof("Metrics listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
