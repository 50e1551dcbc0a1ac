package sim

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors. It is registered on a
// caller-supplied registerer so that each run can own its registry.
type Metrics struct {
	TaskExecutions *prometheus.CounterVec   // labels: kind, outcome
	TaskDuration   *prometheus.HistogramVec // labels: kind
	DependencyHits *prometheus.CounterVec   // labels: kind; results served from an already-Done task
}

// NewMetrics creates the engine collectors and registers them on reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		TaskExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daylight_sim",
			Name:      "task_executions_total",
			Help:      "Task bodies executed, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "daylight_sim",
			Name:      "task_duration_seconds",
			Help:      "Wall time of task bodies, by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"kind"}),
		DependencyHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daylight_sim",
			Name:      "task_memo_hits_total",
			Help:      "Run requests answered by an already completed task, by kind.",
		}, []string{"kind"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.TaskExecutions, m.TaskDuration, m.DependencyHits} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeExecution(kind Kind, outcome State, seconds float64) {
	if m == nil {
		return
	}
	m.TaskExecutions.WithLabelValues(kind.String(), string(outcome)).Inc()
	m.TaskDuration.WithLabelValues(kind.String()).Observe(seconds)
}

func (m *Metrics) observeHit(kind Kind) {
	if m == nil {
		return
	}
	m.DependencyHits.WithLabelValues(kind.String()).Inc()
}
