package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the Prometheus instruments the sandbox server exposes
// on /metrics: generation traffic by tool and stage, provider backend
// calls, credit movement, and raw HTTP request accounting.
type Metrics struct {
	// GenerationCounter counts generation requests.
	// Labels: tool (ad_creative|script_hook|style_clone), stage
	// (primary|secondary), status (success|error)
	GenerationCounter *prometheus.CounterVec

	// GenerationDuration measures generation handling time in seconds.
	// Labels: tool, stage
	GenerationDuration *prometheus.HistogramVec

	// ProviderRequestCounter counts content-provider backend calls.
	// Labels: provider (template|anthropic|openai), model, status
	ProviderRequestCounter *prometheus.CounterVec

	// ProviderRequestDuration measures provider call latency in seconds.
	// Labels: provider, model
	ProviderRequestDuration *prometheus.HistogramVec

	// CreditsSpent accumulates credits charged per tool and stage.
	// Labels: tool, stage
	CreditsSpent *prometheus.CounterVec

	// CreditBalance tracks the account balance after the last charge.
	CreditBalance prometheus.Gauge

	// CreativesSaved counts persisted assets.
	// Labels: tool
	CreativesSaved *prometheus.CounterVec

	// AuthFailures counts rejected requests.
	// Labels: reason (missing|unknown|expired)
	AuthFailures *prometheus.CounterVec

	// HTTPRequestCounter counts HTTP requests.
	// Labels: method, path, status_code
	HTTPRequestCounter *prometheus.CounterVec

	// HTTPRequestDuration measures HTTP request latency in seconds.
	// Labels: method, path, status_code
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the instrument bundle with the default registry.
// Call once per process; /metrics picks the instruments up from there.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the bundle with reg. Tests pass a fresh
// prometheus.NewRegistry so repeated construction does not collide.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		GenerationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adcraft_generations_total",
				Help: "Generation requests by tool, stage, and status",
			},
			[]string{"tool", "stage", "status"},
		),

		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adcraft_generation_duration_seconds",
				Help:    "Generation request handling time in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"tool", "stage"},
		),

		ProviderRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adcraft_provider_requests_total",
				Help: "Content provider calls by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),

		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adcraft_provider_request_duration_seconds",
				Help:    "Content provider call latency in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),

		CreditsSpent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adcraft_credits_spent_total",
				Help: "Credits charged by tool and stage",
			},
			[]string{"tool", "stage"},
		),

		CreditBalance: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "adcraft_credit_balance",
				Help: "Account credit balance after the last charge",
			},
		),

		CreativesSaved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adcraft_creatives_saved_total",
				Help: "Persisted creative assets by tool",
			},
			[]string{"tool"},
		),

		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adcraft_auth_failures_total",
				Help: "Rejected requests by failure reason",
			},
			[]string{"reason"},
		),

		HTTPRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adcraft_http_requests_total",
				Help: "HTTP requests by method, path, and status code",
			},
			[]string{"method", "path", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adcraft_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "path", "status_code"},
		),
	}
}

// RecordGeneration records one generation request.
func (m *Metrics) RecordGeneration(tool, stage, status string, durationSeconds float64) {
	m.GenerationCounter.WithLabelValues(tool, stage, status).Inc()
	m.GenerationDuration.WithLabelValues(tool, stage).Observe(durationSeconds)
}

// RecordProviderRequest records one content-provider backend call.
func (m *Metrics) RecordProviderRequest(provider, model, status string, durationSeconds float64) {
	m.ProviderRequestCounter.WithLabelValues(provider, model, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
}

// RecordCharge records a credit charge and the balance it left behind.
func (m *Metrics) RecordCharge(tool, stage string, credits, newBalance int64) {
	m.CreditsSpent.WithLabelValues(tool, stage).Add(float64(credits))
	m.CreditBalance.Set(float64(newBalance))
}

// RecordCreativesSaved counts n persisted assets for a tool.
func (m *Metrics) RecordCreativesSaved(tool string, n int) {
	m.CreativesSaved.WithLabelValues(tool).Add(float64(n))
}

// RecordAuthFailure counts one rejected request.
func (m *Metrics) RecordAuthFailure(reason string) {
	m.AuthFailures.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records one handled HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, durationSeconds float64) {
	m.HTTPRequestCounter.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(durationSeconds)
}
