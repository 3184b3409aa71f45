// Package metrics holds the Prometheus collectors for suhba.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Requests counts public query operations by operation name
	// (companion_matches, study_partners, mentors, for_you, trending).
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suhba_requests_total",
			Help: "Total number of matching and ranking requests",
		},
		[]string{"operation"},
	)

	// Degraded counts requests that failed open to an empty result.
	Degraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suhba_degraded_total",
			Help: "Requests that returned an empty result because of a store failure",
		},
		[]string{"operation"},
	)

	// ResultSize tracks how many items each operation returned.
	ResultSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "suhba_result_size",
			Help:    "Number of items returned per request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"operation"},
	)

	// StoreQueryDuration measures store calls by query name.
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "suhba_store_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// StoreQueryErrors counts failed store calls by query name.
	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suhba_store_query_errors_total",
			Help: "Total number of failed store queries",
		},
		[]string{"query"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "suhba_circuit_breaker_state",
			Help: "Store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// StrengthUpdates counts atomic strength updates by outcome (applied, skipped).
	StrengthUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suhba_strength_updates_total",
			Help: "Connection strength updates",
		},
		[]string{"outcome"},
	)

	// HTTPRequests counts API requests by route pattern, method, and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suhba_http_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPDuration tracks API latency by route pattern.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "suhba_http_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// ObserveResult records one finished request.
func ObserveResult(operation string, size int, degraded bool) {
	Requests.WithLabelValues(operation).Inc()
	ResultSize.WithLabelValues(operation).Observe(float64(size))
	if degraded {
		Degraded.WithLabelValues(operation).Inc()
	}
}
