/*
Package pipevine provides a Go library for composable sequential processing
pipelines with failure capture, cancellation, and type conversion.

Core (pkg/outcome, pkg/pipe):
  - outcome: Tri-state result container (present, absent, failed)
  - pipe: Stages, pipelines, and convertible chains

Supporting (pkg/pipeconf, pkg/schedule, pkg/redisfeed, pkg/metrics):
  - pipeconf: Build pipelines from YAML definitions
  - schedule: Run pipelines on cron schedules
  - redisfeed: Feed pipelines from Redis lists
  - metrics: Prometheus instrumentation

Example usage:

	import (
		"github.com/pipevine/pipevine/pkg/pipe"
	)

	p := pipe.New[int]("math")
	p.AddStage(pipe.Transform("double", func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	}))

	out := p.Process(ctx, 21) // Present(42)
*/
package pipevine
