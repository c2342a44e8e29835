// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelsync_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	RegistryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_registry_requests_total",
			Help: "Asset registry API requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	RegistryRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelsync_registry_request_duration_seconds",
			Help:    "Asset registry API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// RegistryBreakerState is 0 closed, 1 half-open, 2 open.
	RegistryBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelsync_registry_breaker_state",
			Help: "Asset registry circuit breaker state",
		},
		[]string{"name"},
	)

	ReconcileOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_reconcile_total",
			Help: "Collection reconciliations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	CollectionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_registry_collections_created_total",
			Help: "Collections created in the asset registry by hierarchy level",
		},
		[]string{"level"},
	)

	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_uploads_total",
			Help: "Processed spreadsheet uploads by result",
		},
		[]string{"result"},
	)
)

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
