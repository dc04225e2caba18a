package pipe

import (
	"context"
	"fmt"
	"time"

	"github.com/pipevine/pipevine/pkg/outcome"
)

// Pipeline runs an ordered sequence of stages over one fixed value type.
// Stages execute in insertion order; per-stage failures are captured into the
// flowing Outcome and handed to the next stage rather than raised, so
// independent steps are isolated from each other's faults.
//
// A Pipeline's structure (stage list, cancel behavior, observer) is mutable,
// but structural mutation must not race with in-flight Process calls; the
// engine performs no internal locking. Concurrent Process calls on an
// unmutated pipeline are safe: all per-invocation state is local to the call.
type Pipeline[T any] struct {
	name     string
	stages   []Stage[T]
	behavior CancelBehavior
	observer Observer
}

// New creates an empty pipeline with the given name. The cancel behavior
// defaults to Uncancellable.
func New[T any](name string) *Pipeline[T] {
	return &Pipeline[T]{name: name}
}

// Name returns the pipeline name.
func (p *Pipeline[T]) Name() string { return p.name }

// Len returns the number of stages.
func (p *Pipeline[T]) Len() int { return len(p.stages) }

// Stages returns a copy of the stage sequence in execution order.
func (p *Pipeline[T]) Stages() []Stage[T] {
	out := make([]Stage[T], len(p.stages))
	copy(out, p.stages)
	return out
}

// AddStage appends a stage and returns the pipeline for chaining.
func (p *Pipeline[T]) AddStage(s Stage[T]) *Pipeline[T] {
	p.stages = append(p.stages, s)
	return p
}

// AddStages appends stages in order and returns the pipeline for chaining.
func (p *Pipeline[T]) AddStages(stages ...Stage[T]) *Pipeline[T] {
	p.stages = append(p.stages, stages...)
	return p
}

// AddPipeline splices another pipeline's stage sequence into this one, by
// value: later mutations of other do not affect this pipeline.
func (p *Pipeline[T]) AddPipeline(other *Pipeline[T]) *Pipeline[T] {
	p.stages = append(p.stages, other.stages...)
	return p
}

// RemoveLast removes the most recently added stage. It is a no-op on an
// empty pipeline.
func (p *Pipeline[T]) RemoveLast() *Pipeline[T] {
	if len(p.stages) > 0 {
		p.stages = p.stages[:len(p.stages)-1]
	}
	return p
}

// RemoveAt removes the stage at index i. Out-of-bounds indexes are a no-op.
func (p *Pipeline[T]) RemoveAt(i int) *Pipeline[T] {
	if i >= 0 && i < len(p.stages) {
		p.stages = append(p.stages[:i], p.stages[i+1:]...)
	}
	return p
}

// SetCancelBehavior sets the behavior applied when a cancellable stage halts
// an invocation. Convert is only meaningful on a convertible chain; setting it
// on a plain pipeline returns ErrBehaviorUnsupported and leaves the current
// behavior unchanged.
func (p *Pipeline[T]) SetCancelBehavior(b CancelBehavior) error {
	if b == Convert {
		return fmt.Errorf("pipeline %q: %w: %s", p.name, ErrBehaviorUnsupported, b)
	}
	p.behavior = b
	return nil
}

// CancelBehavior returns the current cancel behavior.
func (p *Pipeline[T]) CancelBehavior() CancelBehavior { return p.behavior }

// SetObserver attaches run and stage hooks, replacing any previous observer.
// Pass nil to detach.
func (p *Pipeline[T]) SetObserver(obs Observer) *Pipeline[T] {
	p.observer = obs
	return p
}

// Process runs the full stage sequence once over input. Data-level failures
// are captured in the returned outcome; Process itself never returns an
// error. Reaching a cancellable stage while the behavior is Uncancellable
// fails the invocation with ErrNotCancellable.
func (p *Pipeline[T]) Process(ctx context.Context, input T) outcome.Outcome[T] {
	c := &Canceller{}
	run := beginRun(ctx, p.observer, p.name, input)
	out, early := p.exec(ctx, outcome.Of(input), c, p.behavior, run)
	if early {
		out = applyCancel(p.behavior, out)
	}
	run.finish(ctx, out.Err(), c.Cancelled())
	return out
}

// ProcessUnsafe is Process with the outcome unwrapped: the raw value (the
// zero value when the outcome ended absent) or the captured failure
// re-surfaced as an error.
func (p *Pipeline[T]) ProcessUnsafe(ctx context.Context, input T) (T, error) {
	return p.Process(ctx, input).Unwrap()
}

// ProcessAll applies Process to each input independently. Per-input state,
// including cancellation, does not leak across inputs.
func (p *Pipeline[T]) ProcessAll(ctx context.Context, inputs []T) []outcome.Outcome[T] {
	results := make([]outcome.Outcome[T], len(inputs))
	for i, in := range inputs {
		results[i] = p.Process(ctx, in)
	}
	return results
}

// ProcessAllSafe is ProcessAll with only the surviving values kept: entries
// that ended absent or failed are omitted, preserving the relative order of
// the rest.
func (p *Pipeline[T]) ProcessAllSafe(ctx context.Context, inputs []T) []T {
	results := make([]T, 0, len(inputs))
	for _, in := range inputs {
		if v, ok := p.Process(ctx, in).Get(); ok {
			results = append(results, v)
		}
	}
	return results
}

// ProcessAllUnsafe is like ProcessAllSafe but keeps absent entries as
// zero-value placeholders, and re-surfaces the first captured failure as an
// error.
func (p *Pipeline[T]) ProcessAllUnsafe(ctx context.Context, inputs []T) ([]T, error) {
	results := make([]T, 0, len(inputs))
	for i, in := range inputs {
		out := p.Process(ctx, in)
		if out.Failed() {
			return nil, fmt.Errorf("input %d: %w", i, out.Err())
		}
		results = append(results, out.Value())
	}
	return results, nil
}

// exec runs the stage loop over cur. The cancel behavior is passed in rather
// than read from the pipeline so a chain-global setting is honored by every
// segment. earlyExit reports that the loop-top cancellation check fired and
// the caller must apply the cancel behavior; a cancel raised by the final
// stage commits that stage's output and exits the loop normally.
func (p *Pipeline[T]) exec(ctx context.Context, cur outcome.Outcome[T], c *Canceller, behavior CancelBehavior, run runHandle) (outcome.Outcome[T], bool) {
	st := execState[T]{cur: cur}
	if v, ok := cur.Get(); ok {
		st.lastVal, st.hasVal = v, true
	}
	if cur.Failed() {
		st.lastErr = cur.Err()
	}

	for i, s := range p.stages {
		if c.Cancelled() {
			return st.cur, true
		}
		if err := ctx.Err(); err != nil {
			return outcome.Fail[T](err), false
		}
		if s.kind == kindCancellable && behavior == Uncancellable {
			return outcome.Fail[T](fmt.Errorf("stage %q: %w", s.name, ErrNotCancellable)), false
		}

		var start time.Time
		if run.active() {
			start = time.Now()
		}
		next, skipped := s.run(ctx, st, c)
		if run.active() {
			var stageErr error
			if !skipped {
				stageErr = next.Err()
			}
			run.stage(ctx, StageReport{
				Pipeline: p.name,
				Stage:    s.name,
				Kind:     s.kind.String(),
				Index:    i,
				Skipped:  skipped,
				Err:      stageErr,
				Duration: time.Since(start),
			})
		}

		if next.Failed() {
			st.lastErr = next.Err()
		} else if v, ok := next.Get(); ok {
			st.lastErr = nil
			st.lastVal, st.hasVal = v, true
		}
		st.cur = next
	}
	return st.cur, false
}

// applyCancel resolves the early-exit outcome for a plain pipeline.
// Uncancellable is unreachable here (the stage guard rejects cancellable
// stages first) and Convert is rejected at SetCancelBehavior time.
func applyCancel[T any](b CancelBehavior, cur outcome.Outcome[T]) outcome.Outcome[T] {
	if b == Discard {
		return outcome.Empty[T]()
	}
	return cur
}
