package outcome

type state uint8

const (
	absent state = iota
	present
	failed
)

// Outcome is a tri-state result container: a present value, an absent value,
// or a captured failure. Exactly one state holds at a time. The zero value
// is Absent.
//
// Outcomes are the unit passed between pipeline stages: a stage's return
// value produces a present outcome, a captured failure produces a failed
// outcome, and a discarded (cancelled) invocation produces an absent one.
type Outcome[T any] struct {
	value T
	err   error
	state state
}

// Of returns a present outcome holding value.
func Of[T any](value T) Outcome[T] {
	return Outcome[T]{value: value, state: present}
}

// Empty returns an absent outcome.
func Empty[T any]() Outcome[T] {
	return Outcome[T]{}
}

// Fail returns a failed outcome capturing err. A nil err yields an absent
// outcome, since there is no failure to capture.
func Fail[T any](err error) Outcome[T] {
	if err == nil {
		return Empty[T]()
	}
	return Outcome[T]{err: err, state: failed}
}

// Present reports whether the outcome holds a value.
func (o Outcome[T]) Present() bool { return o.state == present }

// Absent reports whether the outcome holds neither a value nor a failure.
func (o Outcome[T]) Absent() bool { return o.state == absent }

// Failed reports whether the outcome holds a captured failure.
func (o Outcome[T]) Failed() bool { return o.state == failed }

// Value returns the held value, or the zero value of T when the outcome is
// absent or failed.
func (o Outcome[T]) Value() T { return o.value }

// Err returns the captured failure. It is non-nil only when Failed reports true.
func (o Outcome[T]) Err() error { return o.err }

// Get returns the held value and whether it is present.
func (o Outcome[T]) Get() (T, bool) {
	return o.value, o.state == present
}

// OrElse returns the held value when present, otherwise fallback.
func (o Outcome[T]) OrElse(fallback T) T {
	if o.state == present {
		return o.value
	}
	return fallback
}

// Unwrap collapses the outcome into Go's conventional (value, error) pair:
// the value when present, the captured error when failed, and the zero value
// with a nil error when absent.
func (o Outcome[T]) Unwrap() (T, error) {
	if o.state == failed {
		var zero T
		return zero, o.err
	}
	return o.value, nil
}

// Map projects a present outcome through fn, capturing any error fn returns.
// Failed and absent outcomes pass through untouched; fn is never called for
// them. This is the boundary operation used between convertible pipeline
// segments.
func Map[A, B any](o Outcome[A], fn func(A) (B, error)) Outcome[B] {
	switch o.state {
	case failed:
		return Fail[B](o.err)
	case absent:
		return Empty[B]()
	}
	v, err := fn(o.value)
	if err != nil {
		return Fail[B](err)
	}
	return Of(v)
}
