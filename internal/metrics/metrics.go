// Package metrics holds the Prometheus collectors of the sigkit service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sigkit"

// HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path"},
	)

	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request body size in bytes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8), // 64B to 1MB
		},
		[]string{"method", "path"},
	)
)

// Domain
var (
	// VerificationsTotal counts verifications. outcome is match, mismatch,
	// recovered (no expected address) or error.
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Signature verifications by message shape, signature format and outcome.",
		},
		[]string{"shape", "format", "outcome"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors returned to clients by taxonomy kind.",
		},
		[]string{"kind"},
	)

	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Toolkit operations by name.",
		},
		[]string{"operation"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path, status string, durationSeconds float64, reqSize int64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
	if reqSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	}
}

// RecordVerification records the outcome of one verification.
func RecordVerification(shape, format, outcome string) {
	VerificationsTotal.WithLabelValues(shape, format, outcome).Inc()
}

// RecordError records an error of the given kind.
func RecordError(kind string) {
	ErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordOperation records a call to a toolkit operation.
func RecordOperation(op string) {
	OperationsTotal.WithLabelValues(op).Inc()
}
