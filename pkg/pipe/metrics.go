package pipe

import (
	"context"
	"time"

	"github.com/pipevine/pipevine/pkg/metrics"
)

// MetricsObserver is an Observer that records pipeline and stage activity
// into a Prometheus metrics registry.
type MetricsObserver struct {
	registry *metrics.Registry
}

// NewMetricsObserver creates a metrics-recording observer. A disabled config
// yields an observer whose hooks are no-ops.
func NewMetricsObserver(cfg metrics.Config) *MetricsObserver {
	return &MetricsObserver{registry: cfg.Resolve()}
}

// NewMetricsObserverWith creates an observer recording into reg directly,
// bypassing config resolution. A nil registry yields a no-op observer.
func NewMetricsObserverWith(reg *metrics.Registry) *MetricsObserver {
	return &MetricsObserver{registry: reg}
}

// PipelineStarted implements Observer.
func (o *MetricsObserver) PipelineStarted(_ context.Context, _, pipeline string, _ any) {
	if o.registry == nil {
		return
	}
	o.registry.PipelineExecutions.WithLabelValues(pipeline).Inc()
}

// StageCompleted implements Observer.
func (o *MetricsObserver) StageCompleted(_ context.Context, _ string, r StageReport) {
	if o.registry == nil {
		return
	}
	o.registry.StageExecutions.WithLabelValues(r.Pipeline, r.Stage).Inc()
	o.registry.StageDuration.WithLabelValues(r.Pipeline, r.Stage).Observe(r.Duration.Seconds())
	if r.Skipped {
		o.registry.StageSkips.WithLabelValues(r.Pipeline, r.Stage).Inc()
	}
	if r.Err != nil {
		o.registry.StageFailures.WithLabelValues(r.Pipeline, r.Stage).Inc()
	}
}

// PipelineFinished implements Observer.
func (o *MetricsObserver) PipelineFinished(_ context.Context, _, pipeline string, err error, cancelled bool, duration time.Duration) {
	if o.registry == nil {
		return
	}
	o.registry.PipelineDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
	if err != nil {
		o.registry.PipelineFailures.WithLabelValues(pipeline).Inc()
	}
	if cancelled {
		o.registry.PipelineCancellations.WithLabelValues(pipeline).Inc()
	}
}
