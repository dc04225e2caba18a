package pipe

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StageReport describes one stage execution inside a pipeline run.
type StageReport struct {
	Pipeline string
	Stage    string
	Kind     string
	Index    int

	// Skipped reports that the pass-forward rule fired and the stage body
	// was never invoked.
	Skipped bool

	// Err is the failure captured by this stage, nil on success or skip.
	Err error

	Duration time.Duration
}

// Observer receives hooks around pipeline and stage execution, for logging,
// metrics, or run persistence. Every Process call with an observer attached
// is tagged with a generated run ID so stage reports can be correlated.
//
// Observer methods run synchronously inside the invocation; keep them cheap.
type Observer interface {
	PipelineStarted(ctx context.Context, runID, pipeline string, input any)
	StageCompleted(ctx context.Context, runID string, report StageReport)
	PipelineFinished(ctx context.Context, runID, pipeline string, err error, cancelled bool, duration time.Duration)
}

// runHandle carries the per-invocation observer state. The zero value is an
// inert handle used when no observer is attached.
type runHandle struct {
	obs      Observer
	id       string
	pipeline string
	start    time.Time
}

func beginRun(ctx context.Context, obs Observer, pipeline string, input any) runHandle {
	if obs == nil {
		return runHandle{}
	}
	h := runHandle{obs: obs, id: uuid.New().String(), pipeline: pipeline, start: time.Now()}
	obs.PipelineStarted(ctx, h.id, pipeline, input)
	return h
}

func (h runHandle) active() bool { return h.obs != nil }

func (h runHandle) stage(ctx context.Context, report StageReport) {
	if h.obs != nil {
		h.obs.StageCompleted(ctx, h.id, report)
	}
}

func (h runHandle) finish(ctx context.Context, err error, cancelled bool) {
	if h.obs != nil {
		h.obs.PipelineFinished(ctx, h.id, h.pipeline, err, cancelled, time.Since(h.start))
	}
}

// LogObserver is an Observer that writes structured logs with zerolog.
// Stage failures log at warn level; everything else at debug.
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver creates a LogObserver writing to the given logger.
func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{log: log}
}

// PipelineStarted implements Observer.
func (o *LogObserver) PipelineStarted(_ context.Context, runID, pipeline string, _ any) {
	o.log.Debug().
		Str("run_id", runID).
		Str("pipeline", pipeline).
		Msg("pipeline started")
}

// StageCompleted implements Observer.
func (o *LogObserver) StageCompleted(_ context.Context, runID string, r StageReport) {
	evt := o.log.Debug()
	if r.Err != nil {
		evt = o.log.Warn().Err(r.Err)
	}
	evt.Str("run_id", runID).
		Str("pipeline", r.Pipeline).
		Str("stage", r.Stage).
		Str("kind", r.Kind).
		Int("index", r.Index).
		Bool("skipped", r.Skipped).
		Dur("duration", r.Duration).
		Msg("stage completed")
}

// PipelineFinished implements Observer.
func (o *LogObserver) PipelineFinished(_ context.Context, runID, pipeline string, err error, cancelled bool, duration time.Duration) {
	evt := o.log.Debug()
	if err != nil {
		evt = o.log.Warn().Err(err)
	}
	evt.Str("run_id", runID).
		Str("pipeline", pipeline).
		Bool("cancelled", cancelled).
		Dur("duration", duration).
		Msg("pipeline finished")
}
