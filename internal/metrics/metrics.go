package metrics

import (
	"time"

	"kbdedup/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kbdedup"

// Metrics records upload decisions.
type Metrics struct {
	decisions        *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
	storageConflicts prometheus.Counter
}

func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_decisions_total",
				Help:      "Upload decisions by uploader role, action and rejection reason.",
			},
			[]string{"role", "action", "error_kind"},
		),
		decisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upload_decision_duration_seconds",
				Help:      "Time spent deciding one upload, hashing included.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"role"},
		),
		storageConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_storage_conflicts_total",
				Help:      "Decisions that lost a uniqueness race and were replayed.",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.decisions, m.decisionDuration, m.storageConflicts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) DecisionMade(role models.Role, action models.Action, kind models.ErrorKind, elapsed time.Duration) {
	m.decisions.WithLabelValues(string(role), string(action), string(kind)).Inc()
	m.decisionDuration.WithLabelValues(string(role)).Observe(elapsed.Seconds())
}

func (m *Metrics) StorageConflictRetried() {
	m.storageConflicts.Inc()
}
