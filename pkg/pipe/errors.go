package pipe

import (
	"errors"
	"fmt"
)

// Common error values returned by pipelines and chains.
var (
	// ErrNotCancellable indicates that execution reached a cancellable stage
	// while the effective cancel behavior was Uncancellable. This is a
	// configuration mistake, not a data failure: it fails the whole
	// invocation deterministically on every call.
	ErrNotCancellable = errors.New("pipe: cancellable stage in an uncancellable pipeline")

	// ErrBehaviorUnsupported indicates that a cancel behavior was set on a
	// pipeline flavor that does not support it (e.g. Convert on a plain
	// Pipeline). Reported at the point of setting, not at execution.
	ErrBehaviorUnsupported = errors.New("pipe: cancel behavior not supported by this pipeline")

	// ErrTypeMismatch indicates a value crossing a chain boundary whose
	// dynamic type does not match the expected type. The usual source is a
	// Return cancellation before the chain's final conversion.
	ErrTypeMismatch = errors.New("pipe: value does not match the chain segment type")
)

// PanicError wraps a panic raised inside a stage function, together with the
// goroutine stack at the point of the panic. Stage panics are captured into
// a failed outcome rather than crashing the pipeline caller.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("stage panicked: %v", e.Value)
}
