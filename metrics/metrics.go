// Package metrics provides Prometheus metrics for document loading.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors updated while documents are fetched and
// loaded. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Fetch metrics
	DocumentsFetched *prometheus.CounterVec
	FetchErrors      *prometheus.CounterVec
	CacheHits        *prometheus.CounterVec

	// Load metrics
	LoadDuration       *prometheus.HistogramVec
	ValidationFailures prometheus.Counter
	Imports            prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which suits tests that build several instances.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsFetched: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salad_documents_fetched_total",
				Help: "Total number of documents fetched, by URI scheme",
			},
			[]string{"scheme"},
		),
		FetchErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salad_fetch_errors_total",
				Help: "Total number of failed document fetches, by URI scheme",
			},
			[]string{"scheme"},
		),
		CacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salad_document_cache_hits_total",
				Help: "Total number of document lookups served from a cache",
			},
			[]string{"cache"},
		),
		LoadDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salad_load_duration_seconds",
				Help:    "Duration of root document loads in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		ValidationFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "salad_validation_failures_total",
				Help: "Total number of root loads rejected with a validation error",
			},
		),
		Imports: f.NewCounter(
			prometheus.CounterOpts{
				Name: "salad_imports_total",
				Help: "Total number of $import and $include directives resolved",
			},
		),
	}
}

// RecordFetch counts a fetch attempt for scheme.
func (m *Metrics) RecordFetch(scheme string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.FetchErrors.WithLabelValues(scheme).Inc()
		return
	}
	m.DocumentsFetched.WithLabelValues(scheme).Inc()
}

// RecordCacheHit counts a lookup served by cache ("index" or "fetcher").
func (m *Metrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(cache).Inc()
}

// RecordImport counts a resolved $import or $include.
func (m *Metrics) RecordImport() {
	if m == nil {
		return
	}
	m.Imports.Inc()
}

// ObserveLoad records a finished root load. outcome is "ok", "invalid" or "error".
func (m *Metrics) ObserveLoad(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.LoadDuration.WithLabelValues(outcome).Observe(d.Seconds())
	if outcome == "invalid" {
		m.ValidationFailures.Inc()
	}
}
