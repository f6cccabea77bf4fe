package images

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles Prometheus collectors for the image backfill job.
type Metrics struct {
	Registry      *prometheus.Registry
	AttemptsTotal *prometheus.CounterVec
	SuccessTotal  *prometheus.CounterVec
	MissesTotal   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_provider_attempts_total",
			Help: "Total provider fetch calls by provider name.",
		},
		[]string{"provider"},
	)
	success := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_provider_success_total",
			Help: "Total accepted image results by provider name.",
		},
		[]string{"provider"},
	)
	misses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_provider_misses_total",
			Help: "Total provider calls yielding no usable image.",
		},
		[]string{"provider"},
	)

	registry.MustRegister(attempts, success, misses)

	return &Metrics{
		Registry:      registry,
		AttemptsTotal: attempts,
		SuccessTotal:  success,
		MissesTotal:   misses,
	}
}

func (m *Metrics) IncAttempt(provider string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncSuccess(provider string) {
	if m == nil {
		return
	}
	m.SuccessTotal.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncMiss(provider string) {
	if m == nil {
		return
	}
	m.MissesTotal.WithLabelValues(provider).Inc()
}
