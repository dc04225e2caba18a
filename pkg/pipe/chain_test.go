package pipe

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/pipevine/pipevine/internal/testutil"
	"github.com/pipevine/pipevine/pkg/outcome"
)

func intToFloat(_ context.Context, n int) (float64, error) { return float64(n), nil }

// arithChain builds int(*2) -> float64(/5, *2), the running example from the
// package documentation.
func arithChain() (*Chain[int, int], *Chain[int, float64]) {
	src := NewChain[int]("arith")
	src.AddStage(Transform("double", double))

	tail := Convert(src, "widen", intToFloat)
	tail.AddStage(Transform("fifth", func(_ context.Context, f float64) (float64, error) { return f / 5, nil }))
	tail.AddStage(Transform("double", func(_ context.Context, f float64) (float64, error) { return f * 2, nil }))
	return src, tail
}

func TestChainArithmeticRoundTrip(t *testing.T) {
	_, tail := arithChain()

	got, err := tail.ProcessUnsafe(context.Background(), 18)
	testutil.AssertNoError(t, err)
	// 18*2 = 36 -> 36.0 -> 7.2 -> 14.4.
	testutil.AssertTrue(t, math.Abs(got-14.4) < 1e-9)
}

func TestChainProcessAtIntermediateHandle(t *testing.T) {
	src, _ := arithChain()

	// Processing through the source handle runs only the source segment,
	// even though the chain continues past it.
	out := src.Process(context.Background(), 18)
	testutil.AssertEqual(t, out.Value(), 36)
}

func TestChainConverterSkippedOnFailure(t *testing.T) {
	boom := errors.New("boom")
	var conversions int32

	src := NewChain[int]("failing")
	src.AddStage(Transform("explode", func(_ context.Context, _ int) (int, error) { return 0, boom }))

	tail := Convert(src, "widen", func(_ context.Context, n int) (float64, error) {
		atomic.AddInt32(&conversions, 1)
		return float64(n), nil
	})
	tail.AddStage(Recover("fallback", func(_ context.Context, prev outcome.Outcome[float64]) (float64, error) {
		if prev.Failed() {
			return 42, nil
		}
		return prev.Value(), nil
	}))

	got, err := tail.ProcessUnsafe(context.Background(), 1)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, 42.0)
	testutil.AssertEqual(t, atomic.LoadInt32(&conversions), int32(0))
}

func TestChainConverterFailureIsCaptured(t *testing.T) {
	bad := errors.New("not a number")
	src := NewChain[string]("parse")
	tail := Convert(src, "atoi", func(_ context.Context, s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, bad
		}
		return n, nil
	})

	out := tail.Process(context.Background(), "seven")
	testutil.AssertTrue(t, out.Failed())
	testutil.AssertErrorIs(t, out.Err(), bad)

	got, err := tail.ProcessUnsafe(context.Background(), "7")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, 7)
}

// cancellingArith is arithChain with the source segment cancelling when its
// doubled value exceeds limit. The committed value at the cancel site is the
// doubled int.
func cancellingArith(limit int) *Chain[int, float64] {
	src := NewChain[int]("cancelling")
	src.AddStage(Transform("double", double))
	src.AddStage(Cancellable("cap", func(_ context.Context, c *Canceller, n int, _ error) (int, error) {
		if n > limit {
			c.Cancel()
		}
		return n, nil
	}))

	tail := Convert(src, "widen", intToFloat)
	tail.AddStage(Transform("halve", func(_ context.Context, f float64) (float64, error) { return f / 2, nil }))
	return tail
}

func TestChainCancelDiscard(t *testing.T) {
	tail := cancellingArith(10)
	tail.SetCancelBehavior(Discard)

	out := tail.Process(context.Background(), 6)
	testutil.AssertTrue(t, out.Absent())

	out = tail.Process(context.Background(), 4)
	testutil.AssertEqual(t, out.Value(), 4.0)
}

func TestChainCancelReturnTypeMismatch(t *testing.T) {
	// Return hands back the value committed at the cancel site. When the
	// cancel happens before the final conversion the committed value cannot
	// match the declared output type, and the outcome says so.
	tail := cancellingArith(10)
	tail.SetCancelBehavior(Return)

	out := tail.Process(context.Background(), 6)
	testutil.AssertTrue(t, out.Failed())
	testutil.AssertErrorIs(t, out.Err(), ErrTypeMismatch)
}

func TestChainCancelReturnSameType(t *testing.T) {
	src := NewChain[int]("same-type")
	src.AddStage(Transform("double", double))

	tail := Convert(src, "widen", intToFloat)
	tail.AddStage(Cancellable("cap", func(_ context.Context, c *Canceller, f float64, _ error) (float64, error) {
		c.Cancel()
		return f, nil
	}))
	tail.AddStage(Transform("never", func(_ context.Context, f float64) (float64, error) { return f * 100, nil }))
	tail.SetCancelBehavior(Return)

	// The cancel site is already inside the output-typed segment, so the
	// committed value comes back as-is.
	out := tail.Process(context.Background(), 6)
	testutil.AssertEqual(t, out.Value(), 12.0)
}

func TestChainCancelConvert(t *testing.T) {
	var later int32
	src := NewChain[int]("converting")
	src.AddStage(Cancellable("bail", func(_ context.Context, c *Canceller, n int, _ error) (int, error) {
		c.Cancel()
		return n * 2, nil
	}))

	tail := Convert(src, "widen", intToFloat)
	tail.AddStage(Transform("never", func(_ context.Context, f float64) (float64, error) {
		atomic.AddInt32(&later, 1)
		return f, nil
	}))
	tail.SetCancelBehavior(Convert)

	// Convert skips the remaining stages but still runs the remaining
	// boundary converters, so the committed int reaches the output type.
	out := tail.Process(context.Background(), 6)
	testutil.AssertEqual(t, out.Value(), 12.0)
	testutil.AssertEqual(t, atomic.LoadInt32(&later), int32(0))
}

func TestChainBehaviorIsGlobalAndLastSetWins(t *testing.T) {
	src, tail := arithChain()

	src.SetCancelBehavior(Discard)
	testutil.AssertEqual(t, tail.CancelBehavior(), Discard)

	tail.SetCancelBehavior(Return)
	testutil.AssertEqual(t, src.CancelBehavior(), Return)
}

func TestChainAcceptsConvertBehavior(t *testing.T) {
	// Convert is rejected on a plain pipeline but valid on a chain.
	src := NewChain[int]("chain")
	src.SetCancelBehavior(Convert)
	testutil.AssertEqual(t, src.CancelBehavior(), Convert)
}

func TestChainDepthAndName(t *testing.T) {
	src, tail := arithChain()
	testutil.AssertEqual(t, src.Depth(), 1)
	testutil.AssertEqual(t, tail.Depth(), 2)
	testutil.AssertEqual(t, src.Name(), "arith")
	testutil.AssertEqual(t, tail.Name(), "widen")
}

func TestChainStageMutationsAreSegmentLocal(t *testing.T) {
	src, tail := arithChain()

	tail.RemoveLast()
	testutil.AssertEqual(t, src.Pipeline().Len(), 1)
	testutil.AssertEqual(t, tail.Pipeline().Len(), 1)

	got, err := tail.ProcessUnsafe(context.Background(), 18)
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, math.Abs(got-7.2) < 1e-9)
}

func TestChainProcessAllSafeSkipsDiscarded(t *testing.T) {
	tail := cancellingArith(10)
	tail.SetCancelBehavior(Discard)

	// 6 and 8 double past the limit and are discarded; 2 and 4 survive.
	got := tail.ProcessAllSafe(context.Background(), []int{2, 6, 4, 8})
	testutil.AssertSliceEqual(t, got, []float64{2, 4})
}

func TestChainProcessAllUnsafeStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	src := NewChain[int]("sometimes")
	src.AddStage(Transform("odd-only", func(_ context.Context, n int) (int, error) {
		if n%2 == 0 {
			return 0, boom
		}
		return n, nil
	}))

	_, err := src.ProcessAllUnsafe(context.Background(), []int{1, 3, 4, 5})
	testutil.AssertErrorIs(t, err, boom)
	testutil.AssertEqual(t, err.Error(), "input 2: boom")
}

func TestConvertPanicsOnNilConverter(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil converter")
		}
	}()
	src := NewChain[int]("bad")
	Convert[int, int, float64](src, "widen", nil)
}

func TestConvertPanicsOffTheEnd(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic converting from a stale handle")
		}
	}()
	src := NewChain[int]("stale")
	Convert(src, "widen", intToFloat)

	// src is no longer the end of the chain.
	Convert(src, "again", intToFloat)
}
