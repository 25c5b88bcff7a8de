// Package monitoring exposes Prometheus metrics for the Overpass client.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Service name for metrics
	ServiceName = "overpass"
)

var (
	// Query metrics
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overpass_queries_total",
			Help: "Total number of Overpass queries dispatched",
		},
		[]string{"status"},
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "overpass_query_duration_seconds",
			Help:    "Overpass query round-trip duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
	)

	ParseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overpass_parse_failures_total",
			Help: "Total number of responses that failed to parse",
		},
	)

	// Rate limiting metrics
	RateLimitWaitTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "overpass_rate_limit_wait_duration_seconds",
			Help:    "Time spent waiting for the client-side rate limiter",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overpass_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overpass_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)
)

// Handler returns an HTTP handler serving the metrics in Prometheus
// exposition format, for embedders that run their own mux.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordQuery records a completed query with its status label and
// duration in seconds.
func RecordQuery(status string, seconds float64) {
	QueriesTotal.WithLabelValues(status).Inc()
	QueryDuration.Observe(seconds)
}
