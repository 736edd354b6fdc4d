// Package metrics provides Prometheus metrics for the knowledge base
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MetricsRecorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the knowledge base
type Metrics struct {
	registry *prometheus.Registry

	// Search metrics
	SearchesTotal    *prometheus.CounterVec
	SearchDuration   *prometheus.HistogramVec
	SearchCandidates prometheus.Histogram
	SearchHits       prometheus.Histogram

	// Cache metrics
	CacheLookupsTotal *prometheus.CounterVec

	// Ingestion metrics
	IngestsTotal   *prometheus.CounterVec
	IngestDuration prometheus.Histogram
	ChunksIngested prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics on a private registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.SearchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kb_searches_total",
			Help: "Total number of searches",
		},
		[]string{"mode", "policy", "status"},
	)

	m.SearchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kb_search_duration_seconds",
			Help:    "Duration of uncached searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	m.SearchCandidates = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kb_search_candidates",
			Help:    "Number of scored candidates per search",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	m.SearchHits = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kb_search_hits",
			Help:    "Number of hits returned per search",
			Buckets: prometheus.LinearBuckets(0, 5, 11),
		},
	)

	m.CacheLookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kb_search_cache_lookups_total",
			Help: "Search cache lookups by result",
		},
		[]string{"result"},
	)

	m.IngestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kb_ingests_total",
			Help: "Total number of ingested documents",
		},
		[]string{"source_type", "status"},
	)

	m.IngestDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kb_ingest_duration_seconds",
			Help:    "Duration of document ingestion in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.ChunksIngested = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "kb_chunks_ingested_total",
			Help: "Total number of chunks stored",
		},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kb_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kb_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch records one uncached search
func (m *Metrics) ObserveSearch(mode, policy string, candidates, hits int, took time.Duration, err error) {
	m.SearchesTotal.WithLabelValues(mode, policy, status(err)).Inc()
	if err != nil {
		return
	}
	m.SearchDuration.WithLabelValues(mode).Observe(took.Seconds())
	m.SearchCandidates.Observe(float64(candidates))
	m.SearchHits.Observe(float64(hits))
}

// ObserveCache records a cache lookup
func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveIngest records one ingestion attempt
func (m *Metrics) ObserveIngest(sourceType string, chunks int, took time.Duration, err error) {
	if sourceType == "" {
		sourceType = "unknown"
	}
	m.IngestsTotal.WithLabelValues(sourceType, status(err)).Inc()
	if err != nil {
		return
	}
	m.IngestDuration.Observe(took.Seconds())
	m.ChunksIngested.Add(float64(chunks))
}

// ObserveHTTP records a served request
func (m *Metrics) ObserveHTTP(method, route string, code int, took time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, httpCode(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(took.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func httpCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
