/*
Package outcome provides a tri-state result container for pipeline processing.

An Outcome is either present (holds a value), absent (holds nothing), or
failed (holds a captured error). It replaces raise/catch control flow inside
stage execution: failures travel forward through a pipeline as data until a
stage chooses to inspect or recover them.

# Quick Start

	ok := outcome.Of(42)
	fmt.Println(ok.Present(), ok.Value()) // true 42

	bad := outcome.Fail[int](errors.New("boom"))
	fmt.Println(bad.Failed(), bad.OrElse(-1)) // true -1

	none := outcome.Empty[int]()
	fmt.Println(none.Absent()) // true

# Unwrapping

Unwrap collapses an outcome back into Go's (value, error) convention:

	v, err := bad.Unwrap() // 0, "boom"

# Type projection

Map converts a present outcome to another type, capturing conversion errors.
Failed and absent outcomes cross the projection untouched:

	f := outcome.Map(outcome.Of(21), func(n int) (float64, error) {
		return float64(n) * 2, nil
	})
*/
package outcome
