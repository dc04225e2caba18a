/*
Package pipe provides a sequential pipeline engine with pluggable stages,
failure isolation, and cooperative cancellation.

A Pipeline runs an ordered list of stages over one fixed value type. A
stage's failure is captured into the flowing outcome and handed to the next
stage as data instead of being raised, so independent steps cannot take each
other down. Convertible chains link fixed-type pipelines through type
converters when the working type has to change partway through.

# Quick Start

	p := pipe.New[int]("math")

	p.AddStage(pipe.Transform("double", func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	}))
	p.AddStage(pipe.Transform("inc", func(_ context.Context, n int) (int, error) {
		return n + 1, nil
	}))

	out := p.Process(context.Background(), 20)
	fmt.Println(out.Value()) // 41

# Stage shapes

Five constructors cover the closed set of stage variants:

	pipe.Transform(name, fn)   // value in, value out; skipped after a failure
	pipe.Recover(name, fn)     // always runs, sees the full prior outcome
	pipe.WithError(name, fn)   // sees the working value plus the last captured error
	pipe.Effect(name, fn)      // side effect only, value passes through
	pipe.Cancellable(name, fn) // WithError plus a cancel handle

Transform and Effect obey the pass-forward rule: a failed or absent outcome
skips them unchanged until a Recover or WithError stage chooses to handle it:

	p.AddStage(pipe.Transform("parse", parse))       // fails on bad input
	p.AddStage(pipe.Effect("audit", audit))          // skipped after a failure
	p.AddStage(pipe.Recover("fallback", func(_ context.Context, prev outcome.Outcome[Record]) (Record, error) {
		if prev.Failed() {
			return defaultRecord, nil
		}
		return prev.Value(), nil
	}))

# Processing

	out := p.Process(ctx, in)               // Outcome, never an error
	v, err := p.ProcessUnsafe(ctx, in)      // unwrapped; failures re-surface
	outs := p.ProcessAll(ctx, ins)          // one outcome per input
	vs := p.ProcessAllSafe(ctx, ins)        // surviving values only
	vs, err := p.ProcessAllUnsafe(ctx, ins) // absent kept as zero values

# Cancellation

A Cancellable stage may halt its own invocation through the handle it
receives. The pipeline's cancel behavior decides the result:

	p.SetCancelBehavior(pipe.Discard) // cancelled runs yield an absent outcome
	p.SetCancelBehavior(pipe.Return)  // cancelled runs yield the value so far

	p.AddStage(pipe.Cancellable("cap", func(_ context.Context, c *pipe.Canceller, n int, _ error) (int, error) {
		if n > 100 {
			c.Cancel()
		}
		return n, nil
	}))

The default behavior is Uncancellable: running a cancellable stage under it
fails the invocation with ErrNotCancellable. Cancellation is cooperative and
local to one Process call.

# Convertible chains

When the working type changes mid-flow, link pipelines with Convert. The
chain keeps its root input type and shares one cancel behavior across every
segment:

	src := pipe.NewChain[int]("ingest")
	src.AddStage(pipe.Transform("double", double))

	floats := pipe.Convert(src, "to-float", func(_ context.Context, n int) (float64, error) {
		return float64(n), nil
	})
	floats.AddStage(pipe.Transform("fifth", fifth))

	v, err := floats.ProcessUnsafe(ctx, 18)

Failed and absent outcomes cross conversion boundaries untouched; converters
only ever see present values.

# Observability

Attach an Observer for structured logs or Prometheus metrics:

	p.SetObserver(pipe.NewLogObserver(log.Logger))
	p.SetObserver(pipe.NewMetricsObserver(metrics.DefaultConfig()))

Each observed invocation carries a generated run ID correlating its stage
reports.

# Thread safety

Per-invocation state is local to each Process call, so concurrent Process
calls on a structurally stable pipeline are safe. Structural mutation
(AddStage, RemoveAt, SetCancelBehavior) must be serialized externally against
in-flight calls; the engine takes no locks.
*/
package pipe
