package pipe

import (
	"context"
	"sync"

	"github.com/pipevine/pipevine/pkg/outcome"
)

// ProcessAllConcurrent is ProcessAll with inputs fanned out over a bounded
// set of worker goroutines. Results keep input order. Each input gets its own
// invocation state, so this is safe as long as the pipeline's structure is
// not mutated while calls are in flight. workers values below 2 fall back to
// the sequential ProcessAll.
func (p *Pipeline[T]) ProcessAllConcurrent(ctx context.Context, inputs []T, workers int) []outcome.Outcome[T] {
	if workers <= 1 || len(inputs) <= 1 {
		return p.ProcessAll(ctx, inputs)
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	results := make([]outcome.Outcome[T], len(inputs))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = p.Process(ctx, inputs[i])
			}
		}()
	}

	for i := range inputs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}
