package pipe

import "fmt"

// CancelBehavior governs what a pipeline returns when a cancellable stage
// halts the current invocation.
type CancelBehavior uint8

const (
	// Uncancellable is the default: the pipeline rejects cancellable stages
	// at execution time with ErrNotCancellable.
	Uncancellable CancelBehavior = iota

	// Discard returns an absent outcome when the invocation is cancelled.
	Discard

	// Return returns the outcome accumulated so far when the invocation is
	// cancelled. On a chain, the accumulated value must already match the
	// chain's declared output type; a mismatch fails with ErrTypeMismatch.
	Return

	// Convert is only valid on convertible chains: on cancellation the
	// accumulated value is passed through the remaining boundary converters
	// (skipping all remaining stages) so the declared output type is reached.
	Convert
)

// String returns the behavior name.
func (b CancelBehavior) String() string {
	switch b {
	case Uncancellable:
		return "uncancellable"
	case Discard:
		return "discard"
	case Return:
		return "return"
	case Convert:
		return "convert"
	default:
		return "unknown"
	}
}

// ParseCancelBehavior parses a behavior name as produced by String. The empty
// string parses as Uncancellable.
func ParseCancelBehavior(s string) (CancelBehavior, error) {
	switch s {
	case "", "uncancellable":
		return Uncancellable, nil
	case "discard":
		return Discard, nil
	case "return":
		return Return, nil
	case "convert":
		return Convert, nil
	default:
		return Uncancellable, fmt.Errorf("unknown cancel behavior %q", s)
	}
}

// Canceller is the handle passed to cancellable stages. Calling Cancel marks
// the current invocation as cancelled; the pipeline stops before running the
// next stage and applies the configured CancelBehavior. A Canceller is local
// to a single Process call and never shared across invocations.
type Canceller struct {
	cancelled bool
}

// Cancel marks the current invocation as cancelled.
func (c *Canceller) Cancel() { c.cancelled = true }

// Cancelled reports whether Cancel has been called during this invocation.
func (c *Canceller) Cancelled() bool { return c.cancelled }
