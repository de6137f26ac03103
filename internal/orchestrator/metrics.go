package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// orchestratorMetrics holds all Prometheus metrics owned by the orchestrator.
// A single instance is created in New and stored on Orchestrator so that tests
// can inject a fresh prometheus.Registry without polluting the default one.
type orchestratorMetrics struct {
	// tasksTotal counts completed tasks, partitioned by kind and terminal
	// outcome: "succeeded", "failed", or "skipped".
	tasksTotal *prometheus.CounterVec

	// taskDurationSeconds records per-attempt handler duration by kind.
	taskDurationSeconds *prometheus.HistogramVec

	// retriesTotal counts retry attempts (attempts beyond the first) by kind.
	retriesTotal *prometheus.CounterVec
}

// newOrchestratorMetrics registers all orchestrator metrics against reg.
// promauto.With(reg) registers into the provided registry rather than the
// global default, which keeps unit tests hermetic.
func newOrchestratorMetrics(reg prometheus.Registerer) *orchestratorMetrics {
	factory := promauto.With(reg)

	return &orchestratorMetrics{
		tasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookmind",
			Subsystem: "orchestrator",
			Name:      "tasks_total",
			Help:      "Total number of tasks reaching a terminal state, partitioned by kind and outcome.",
		}, []string{"kind", "outcome"}),

		taskDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookmind",
			Subsystem: "orchestrator",
			Name:      "task_duration_seconds",
			Help:      "Wall-clock duration of individual task attempts.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"kind"}),

		retriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookmind",
			Subsystem: "orchestrator",
			Name:      "retries_total",
			Help:      "Total number of task retry attempts.",
		}, []string{"kind"}),
	}
}
