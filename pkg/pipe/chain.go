package pipe

import (
	"context"
	"fmt"

	"github.com/pipevine/pipevine/pkg/outcome"
)

// chainCore is the shared root of a convertible chain. It owns the segment
// arena and the single chain-global cancel behavior; segment handles reference
// it rather than copying it, so the most recently set behavior is the one
// every segment consults.
type chainCore struct {
	name     string
	behavior CancelBehavior
	segments []chainSegment
}

// chainSegment is one fixed-type pipeline segment, type-erased so segments of
// different working types can live in one arena. convert is the boundary
// function from the previous segment's type; it is nil on the source segment.
type chainSegment struct {
	name    string
	convert func(ctx context.Context, v any) (any, error)
	exec    func(ctx context.Context, cur outcome.Outcome[any], c *Canceller, behavior CancelBehavior) (outcome.Outcome[any], bool)
}

// Chain is a handle to one segment of a convertible pipeline chain: a
// sequence of fixed-type pipeline segments linked by type converters. P is
// the chain's root input type, fixed for the whole chain; I is this segment's
// working type. NewChain returns the source handle Chain[I, I]; Convert
// extends the chain and returns the handle for the new end.
//
// Processing through any handle runs every segment from the source up to and
// including that handle's segment. Stage mutations through a handle affect
// only that handle's segment.
type Chain[P, I any] struct {
	core *chainCore
	idx  int
	pipe *Pipeline[I]
}

// NewChain creates the source segment of a convertible chain.
func NewChain[I any](name string) *Chain[I, I] {
	core := &chainCore{name: name}
	p := New[I](name)
	core.segments = append(core.segments, chainSegment{name: name, exec: erasedExec(p)})
	return &Chain[I, I]{core: core, pipe: p}
}

// Convert appends a new segment of working type K, linked after c's segment
// via conv, and returns the handle for the new end of the chain. conv is only
// applied to present values; failed and absent outcomes cross the boundary
// untouched. There is no limit on chain depth.
//
// Convert panics when conv is nil or when c is not the current end of the
// chain: both are construction mistakes, not data errors.
func Convert[P, I, K any](c *Chain[P, I], name string, conv func(ctx context.Context, v I) (K, error)) *Chain[P, K] {
	if conv == nil {
		panic("pipe: Convert with nil converter")
	}
	if c.idx != len(c.core.segments)-1 {
		panic("pipe: Convert from a segment that is not the end of the chain")
	}

	p := New[K](name)
	c.core.segments = append(c.core.segments, chainSegment{
		name: name,
		convert: func(ctx context.Context, v any) (any, error) {
			in, ok := v.(I)
			if !ok {
				return nil, fmt.Errorf("converter %q: %w: have %T", name, ErrTypeMismatch, v)
			}
			return conv(ctx, in)
		},
		exec: erasedExec(p),
	})
	return &Chain[P, K]{core: c.core, idx: c.idx + 1, pipe: p}
}

// erasedExec wraps a typed pipeline's stage loop behind the chain's erased
// calling convention, including the segment's own observer run if one is
// attached to its pipeline.
func erasedExec[I any](p *Pipeline[I]) func(context.Context, outcome.Outcome[any], *Canceller, CancelBehavior) (outcome.Outcome[any], bool) {
	return func(ctx context.Context, cur outcome.Outcome[any], c *Canceller, behavior CancelBehavior) (outcome.Outcome[any], bool) {
		in := fromAny[I](cur)
		run := beginRun(ctx, p.observer, p.name, cur.Value())
		out, early := p.exec(ctx, in, c, behavior, run)
		run.finish(ctx, out.Err(), c.Cancelled())
		return toAny(out), early
	}
}

// Name returns the name of this handle's segment.
func (c *Chain[P, I]) Name() string { return c.pipe.Name() }

// Depth returns the number of segments from the source through this handle.
func (c *Chain[P, I]) Depth() int { return c.idx + 1 }

// Pipeline returns this handle's typed segment pipeline, e.g. to attach an
// observer to it.
func (c *Chain[P, I]) Pipeline() *Pipeline[I] { return c.pipe }

// AddStage appends a stage to this segment and returns the handle for
// chaining.
func (c *Chain[P, I]) AddStage(s Stage[I]) *Chain[P, I] {
	c.pipe.AddStage(s)
	return c
}

// AddStages appends stages in order to this segment.
func (c *Chain[P, I]) AddStages(stages ...Stage[I]) *Chain[P, I] {
	c.pipe.AddStages(stages...)
	return c
}

// AddPipeline splices another pipeline's stages into this segment, by value.
func (c *Chain[P, I]) AddPipeline(other *Pipeline[I]) *Chain[P, I] {
	c.pipe.AddPipeline(other)
	return c
}

// RemoveLast removes this segment's most recently added stage; a no-op when
// the segment is empty.
func (c *Chain[P, I]) RemoveLast() *Chain[P, I] {
	c.pipe.RemoveLast()
	return c
}

// RemoveAt removes this segment's stage at index i; out-of-bounds is a no-op.
func (c *Chain[P, I]) RemoveAt(i int) *Chain[P, I] {
	c.pipe.RemoveAt(i)
	return c
}

// SetCancelBehavior sets the chain-global cancel behavior. The setting lives
// on the chain root: calling this on any segment overrides the effective
// behavior for the whole chain, and the most recently set value wins. All
// behaviors, including Convert, are valid on a chain.
func (c *Chain[P, I]) SetCancelBehavior(b CancelBehavior) *Chain[P, I] {
	c.core.behavior = b
	return c
}

// CancelBehavior returns the chain-global cancel behavior.
func (c *Chain[P, I]) CancelBehavior() CancelBehavior { return c.core.behavior }

// Process runs every segment from the source through this handle's segment:
// each boundary converter maps the previous segment's final present value
// into the next working type, then the segment's stages run. Failures are
// captured in the returned outcome, never raised.
func (c *Chain[P, I]) Process(ctx context.Context, input P) outcome.Outcome[I] {
	h := &Canceller{}
	behavior := c.core.behavior

	cur := outcome.Of[any](input)
	for i := 0; i <= c.idx; i++ {
		seg := c.core.segments[i]
		if seg.convert != nil {
			if v, ok := cur.Get(); ok {
				cur = capture(func() (any, error) { return seg.convert(ctx, v) })
			}
		}
		var early bool
		cur, early = seg.exec(ctx, cur, h, behavior)

		// A cancel inside this segment, or one committed by its final
		// stage, halts the rest of the chain.
		if early || (h.Cancelled() && i < c.idx) {
			return c.resolveCancel(ctx, behavior, cur, i+1)
		}
	}
	return fromAny[I](cur)
}

// ProcessUnsafe is Process with the outcome unwrapped into (value, error).
func (c *Chain[P, I]) ProcessUnsafe(ctx context.Context, input P) (I, error) {
	return c.Process(ctx, input).Unwrap()
}

// ProcessAll applies Process to each input independently.
func (c *Chain[P, I]) ProcessAll(ctx context.Context, inputs []P) []outcome.Outcome[I] {
	results := make([]outcome.Outcome[I], len(inputs))
	for i, in := range inputs {
		results[i] = c.Process(ctx, in)
	}
	return results
}

// ProcessAllSafe is ProcessAll keeping only present results, in order.
func (c *Chain[P, I]) ProcessAllSafe(ctx context.Context, inputs []P) []I {
	results := make([]I, 0, len(inputs))
	for _, in := range inputs {
		if v, ok := c.Process(ctx, in).Get(); ok {
			results = append(results, v)
		}
	}
	return results
}

// ProcessAllUnsafe is like ProcessAllSafe but keeps absent entries as
// zero-value placeholders and re-surfaces the first captured failure.
func (c *Chain[P, I]) ProcessAllUnsafe(ctx context.Context, inputs []P) ([]I, error) {
	results := make([]I, 0, len(inputs))
	for i, in := range inputs {
		out := c.Process(ctx, in)
		if out.Failed() {
			return nil, fmt.Errorf("input %d: %w", i, out.Err())
		}
		results = append(results, out.Value())
	}
	return results, nil
}

// resolveCancel applies the chain-global cancel behavior to the accumulated
// outcome. nextSeg indexes the first segment whose boundary conversion has
// not yet been applied.
func (c *Chain[P, I]) resolveCancel(ctx context.Context, behavior CancelBehavior, cur outcome.Outcome[any], nextSeg int) outcome.Outcome[I] {
	switch behavior {
	case Discard:
		return outcome.Empty[I]()
	case Convert:
		// Skip all remaining stages but run the remaining boundary
		// converters so the declared output type is reached.
		for j := nextSeg; j <= c.idx; j++ {
			conv := c.core.segments[j].convert
			if conv == nil {
				continue
			}
			v, ok := cur.Get()
			if !ok {
				break
			}
			cur = capture(func() (any, error) { return conv(ctx, v) })
		}
		return fromAny[I](cur)
	default:
		// Return: the accumulated value must already match the declared
		// output type; fromAny reports ErrTypeMismatch otherwise.
		return fromAny[I](cur)
	}
}

// toAny erases an outcome's value type.
func toAny[I any](o outcome.Outcome[I]) outcome.Outcome[any] {
	switch {
	case o.Failed():
		return outcome.Fail[any](o.Err())
	case o.Absent():
		return outcome.Empty[any]()
	default:
		return outcome.Of[any](o.Value())
	}
}

// fromAny restores an erased outcome to a concrete value type. A present
// value of the wrong dynamic type becomes a failure carrying ErrTypeMismatch
// rather than a silent miscast.
func fromAny[I any](o outcome.Outcome[any]) outcome.Outcome[I] {
	switch {
	case o.Failed():
		return outcome.Fail[I](o.Err())
	case o.Absent():
		return outcome.Empty[I]()
	}
	v, ok := o.Value().(I)
	if !ok {
		var want I
		return outcome.Fail[I](fmt.Errorf("%w: have %T, want %T", ErrTypeMismatch, o.Value(), want))
	}
	return outcome.Of(v)
}
