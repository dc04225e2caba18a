package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for pipevine components.
type Registry struct {
	// Pipeline metrics
	PipelineExecutions    *prometheus.CounterVec
	PipelineFailures      *prometheus.CounterVec
	PipelineCancellations *prometheus.CounterVec
	PipelineDuration      *prometheus.HistogramVec

	// Stage metrics
	StageExecutions *prometheus.CounterVec
	StageFailures   *prometheus.CounterVec
	StageSkips      *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec

	// Scheduled run metrics
	ScheduleRuns     *prometheus.CounterVec
	ScheduleFailures *prometheus.CounterVec

	// Feed metrics
	FeedJobs *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by pipevine components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		PipelineExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipevine",
				Subsystem: "pipeline",
				Name:      "executions_total",
				Help:      "Total number of pipeline invocations",
			},
			[]string{"pipeline"},
		),

		PipelineFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipevine",
				Subsystem: "pipeline",
				Name:      "failures_total",
				Help:      "Total number of invocations that ended with a captured failure",
			},
			[]string{"pipeline"},
		),

		PipelineCancellations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipevine",
				Subsystem: "pipeline",
				Name:      "cancellations_total",
				Help:      "Total number of invocations cancelled by a cancellable stage",
			},
			[]string{"pipeline"},
		),

		PipelineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pipevine",
				Subsystem: "pipeline",
				Name:      "duration_seconds",
				Help:      "Wall time of a full pipeline invocation",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline"},
		),

		StageExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipevine",
				Subsystem: "stage",
				Name:      "executions_total",
				Help:      "Total number of stage executions, including skipped stages",
			},
			[]string{"pipeline", "stage"},
		),

		StageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipevine",
				Subsystem: "stage",
				Name:      "failures_total",
				Help:      "Total number of failures captured by a stage",
			},
			[]string{"pipeline", "stage"},
		),

		StageSkips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipevine",
				Subsystem: "stage",
				Name:      "skips_total",
				Help:      "Total number of stages skipped by the pass-forward rule",
			},
			[]string{"pipeline", "stage"},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pipevine",
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Wall time of a single stage execution",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline", "stage"},
		),

		ScheduleRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipevine",
				Subsystem: "schedule",
				Name:      "runs_total",
				Help:      "Total number of scheduled pipeline runs",
			},
			[]string{"job"},
		),

		ScheduleFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipevine",
				Subsystem: "schedule",
				Name:      "failures_total",
				Help:      "Total number of scheduled runs that reported an error",
			},
			[]string{"job"},
		),

		FeedJobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipevine",
				Subsystem: "feed",
				Name:      "jobs_total",
				Help:      "Total number of feed jobs by terminal status",
			},
			[]string{"queue", "status"},
		),
	}
}
