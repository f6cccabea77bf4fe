package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for reconciliation runs.
type Metrics struct {
	Registry          *prometheus.Registry
	ReclassifiedTotal prometheus.Counter
	DeletedTotal      prometheus.Counter
	LabelsCreated     *prometheus.CounterVec
	LabelsCompacted   *prometheus.CounterVec
	FailuresTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	reclassified := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_reclassified_total",
			Help: "Total catalog entries whose brand or category was reassigned.",
		},
	)
	deleted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_duplicates_deleted_total",
			Help: "Total duplicate loser entries deleted.",
		},
	)
	labelsCreated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_labels_created_total",
			Help: "Total label rows lazily created during classification.",
		},
		[]string{"kind"},
	)
	labelsCompacted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_labels_compacted_total",
			Help: "Total label rows deleted or merged during compaction.",
		},
		[]string{"kind", "action"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_failures_total",
			Help: "Total per-unit failures the run logged and skipped.",
		},
		[]string{"phase"},
	)

	registry.MustRegister(reclassified, deleted, labelsCreated, labelsCompacted, failures)

	return &Metrics{
		Registry:          registry,
		ReclassifiedTotal: reclassified,
		DeletedTotal:      deleted,
		LabelsCreated:     labelsCreated,
		LabelsCompacted:   labelsCompacted,
		FailuresTotal:     failures,
	}
}

func (m *Metrics) IncReclassified() {
	if m == nil {
		return
	}
	m.ReclassifiedTotal.Inc()
}

func (m *Metrics) AddDeleted(n int) {
	if m == nil {
		return
	}
	m.DeletedTotal.Add(float64(n))
}

func (m *Metrics) IncLabelCreated(kind string) {
	if m == nil {
		return
	}
	m.LabelsCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncLabelCompacted(kind, action string) {
	if m == nil {
		return
	}
	m.LabelsCompacted.WithLabelValues(kind, action).Inc()
}

func (m *Metrics) IncFailure(phase string) {
	if m == nil {
		return
	}
	m.FailuresTotal.WithLabelValues(phase).Inc()
}
