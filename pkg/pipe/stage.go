package pipe

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/pipevine/pipevine/pkg/outcome"
)

// TransformFunc converts a present value into the next value, or fails.
type TransformFunc[T any] func(ctx context.Context, value T) (T, error)

// RecoverFunc receives the full prior outcome, regardless of its state, and
// decides whether and how to recover from failure or absence.
type RecoverFunc[T any] func(ctx context.Context, prev outcome.Outcome[T]) (T, error)

// ErrorAwareFunc receives the working value together with the most recently
// captured error (nil when the previous stage succeeded).
type ErrorAwareFunc[T any] func(ctx context.Context, value T, lastErr error) (T, error)

// EffectFunc runs for its side effect only; the working value passes through
// the stage unchanged.
type EffectFunc[T any] func(ctx context.Context, value T) error

// CancellableFunc is an ErrorAwareFunc that additionally receives the
// invocation's cancel handle.
type CancellableFunc[T any] func(ctx context.Context, c *Canceller, value T, lastErr error) (T, error)

// stageKind tags the closed set of stage variants. Dispatch is by tag, not by
// interface satisfaction, so the variant set cannot grow outside this package.
type stageKind uint8

const (
	kindTransform stageKind = iota
	kindRecover
	kindErrorAware
	kindEffect
	kindCancellable
)

func (k stageKind) String() string {
	switch k {
	case kindTransform:
		return "transform"
	case kindRecover:
		return "recover"
	case kindErrorAware:
		return "error-aware"
	case kindEffect:
		return "effect"
	case kindCancellable:
		return "cancellable"
	default:
		return "unknown"
	}
}

// Stage is a single transformation step in a pipeline. Stages are immutable
// values constructed by one of Transform, Recover, WithError, Effect or
// Cancellable; each variant carries only the function it needs.
type Stage[T any] struct {
	name        string
	kind        stageKind
	transform   TransformFunc[T]
	restore     RecoverFunc[T]
	errAware    ErrorAwareFunc[T]
	effect      EffectFunc[T]
	cancellable CancellableFunc[T]
}

// Transform returns a stage that converts the working value. The stage is
// skipped when the incoming outcome is failed or absent; the prior outcome
// passes forward unchanged.
func Transform[T any](name string, fn TransformFunc[T]) Stage[T] {
	return Stage[T]{name: name, kind: kindTransform, transform: fn}
}

// Recover returns a stage that is always invoked with the full prior outcome,
// even when it is failed or absent. Use it to inspect or recover earlier
// failures.
func Recover[T any](name string, fn RecoverFunc[T]) Stage[T] {
	return Stage[T]{name: name, kind: kindRecover, restore: fn}
}

// WithError returns a stage invoked with the working value and the most
// recently captured error, if any. When the prior outcome is failed, the last
// present value observed during the invocation stands in as the working value;
// if no value has been observed the stage is skipped.
func WithError[T any](name string, fn ErrorAwareFunc[T]) Stage[T] {
	return Stage[T]{name: name, kind: kindErrorAware, errAware: fn}
}

// Effect returns a stage invoked for its side effect only when a value is
// present; the value passes through unchanged. Failures during the effect are
// captured exactly like Transform failures.
func Effect[T any](name string, fn EffectFunc[T]) Stage[T] {
	return Stage[T]{name: name, kind: kindEffect, effect: fn}
}

// Cancellable returns a stage that, in addition to WithError semantics,
// receives the invocation's cancel handle. Executing a cancellable stage in a
// pipeline whose cancel behavior is Uncancellable fails the invocation with
// ErrNotCancellable.
func Cancellable[T any](name string, fn CancellableFunc[T]) Stage[T] {
	return Stage[T]{name: name, kind: kindCancellable, cancellable: fn}
}

// WithTimeout wraps a stage so its function runs under a context deadline of
// d. The stage variant and name are preserved. A non-positive d returns the
// stage unchanged.
func WithTimeout[T any](s Stage[T], d time.Duration) Stage[T] {
	if d <= 0 {
		return s
	}
	out := s
	switch s.kind {
	case kindTransform:
		fn := s.transform
		out.transform = func(ctx context.Context, v T) (T, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return fn(ctx, v)
		}
	case kindRecover:
		fn := s.restore
		out.restore = func(ctx context.Context, prev outcome.Outcome[T]) (T, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return fn(ctx, prev)
		}
	case kindErrorAware:
		fn := s.errAware
		out.errAware = func(ctx context.Context, v T, lastErr error) (T, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return fn(ctx, v, lastErr)
		}
	case kindEffect:
		fn := s.effect
		out.effect = func(ctx context.Context, v T) error {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return fn(ctx, v)
		}
	case kindCancellable:
		fn := s.cancellable
		out.cancellable = func(ctx context.Context, c *Canceller, v T, lastErr error) (T, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return fn(ctx, c, v, lastErr)
		}
	}
	return out
}

// Name returns the stage name.
func (s Stage[T]) Name() string { return s.name }

// Kind returns a short description of the stage variant.
func (s Stage[T]) Kind() string { return s.kind.String() }

// execState is the per-invocation bookkeeping threaded through a stage loop:
// the flowing outcome, the last present value observed (feeds error-aware
// stages after a failure), and the last captured error (cleared on success).
type execState[T any] struct {
	cur     outcome.Outcome[T]
	lastVal T
	hasVal  bool
	lastErr error
}

// run applies the stage per its variant's invocation rule. skipped reports
// that the pass-forward rule fired and the prior outcome went through
// unchanged.
func (s Stage[T]) run(ctx context.Context, st execState[T], c *Canceller) (next outcome.Outcome[T], skipped bool) {
	switch s.kind {
	case kindRecover:
		return capture(func() (T, error) { return s.restore(ctx, st.cur) }), false

	case kindTransform:
		v, ok := st.cur.Get()
		if !ok {
			return st.cur, true
		}
		return capture(func() (T, error) { return s.transform(ctx, v) }), false

	case kindEffect:
		v, ok := st.cur.Get()
		if !ok {
			return st.cur, true
		}
		out := capture(func() (T, error) { return v, s.effect(ctx, v) })
		return out, false

	case kindErrorAware:
		v, ok := s.workingValue(st)
		if !ok {
			return st.cur, true
		}
		return capture(func() (T, error) { return s.errAware(ctx, v, st.lastErr) }), false

	case kindCancellable:
		v, ok := s.workingValue(st)
		if !ok {
			return st.cur, true
		}
		return capture(func() (T, error) { return s.cancellable(ctx, c, v, st.lastErr) }), false

	default:
		return st.cur, true
	}
}

// workingValue resolves the input for error-aware variants: the present value
// when there is one, otherwise the last value seen before the failure.
// Absent outcomes carry no error to react to, so they pass forward.
func (s Stage[T]) workingValue(st execState[T]) (T, bool) {
	if v, ok := st.cur.Get(); ok {
		return v, true
	}
	if st.cur.Failed() && st.hasVal {
		return st.lastVal, true
	}
	var zero T
	return zero, false
}

// capture runs fn, converting a returned error or a panic into a failed
// outcome. Panics carry a PanicError with the stack at the panic site.
func capture[T any](fn func() (T, error)) (out outcome.Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome.Fail[T](&PanicError{Value: r, Stack: string(debug.Stack())})
		}
	}()
	v, err := fn()
	if err != nil {
		return outcome.Fail[T](err)
	}
	return outcome.Of(v)
}
