package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for outbound provider calls.
type Metrics struct {
	// labels: provider, endpoint, outcome={success,status_error,transport_error,decode_error,circuit_open}
	ProviderRequests *prometheus.CounterVec
	// labels: provider, endpoint
	ProviderRequestDuration *prometheus.HistogramVec
	// labels: provider, result={valid,invalid}
	KeyValidations *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderRequestDuration,
		m.KeyValidations,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_cli",
			Name:      "provider_requests_total",
			Help:      "Provider API requests by endpoint and outcome.",
		}, []string{"provider", "endpoint", "outcome"}),
		ProviderRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_cli",
			Name:      "provider_request_duration_seconds",
			Help:      "Provider API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider", "endpoint"}),
		KeyValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_cli",
			Name:      "api_key_validations_total",
			Help:      "API key validations by provider and result.",
		}, []string{"provider", "result"}),
	}
}
