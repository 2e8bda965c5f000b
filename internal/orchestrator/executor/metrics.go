package executor

import "github.com/prometheus/client_golang/prometheus"

var (
	runningTasks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "missionctl_executor_running_tasks",
			Help: "Number of task executions currently in flight.",
		},
	)

	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missionctl_executor_tasks_total",
			Help: "Total number of finished task executions by terminal status.",
		},
		[]string{"status"},
	)

	outputChunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missionctl_executor_output_chunks_total",
			Help: "Total number of streamed output chunks by type.",
		},
		[]string{"type"},
	)

	taskDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "missionctl_executor_task_duration_seconds",
			Help:    "Wall-clock duration of task executions, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(runningTasks)
	prometheus.MustRegister(tasksTotal)
	prometheus.MustRegister(outputChunks)
	prometheus.MustRegister(taskDuration)

	// Pre-initialize label combinations so they appear in /metrics with
	// value 0 from startup, rather than only after first observation.
	for _, status := range []string{StatusCompleted, StatusError, StatusStopped} {
		tasksTotal.WithLabelValues(status)
	}
	for _, chunkType := range []string{"message", "tool_use", "tool_result"} {
		outputChunks.WithLabelValues(chunkType)
	}
}
