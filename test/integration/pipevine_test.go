// Package integration exercises configuration, pipelines, chains, and
// observability together.
package integration

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pipevine/pipevine/internal/testutil"
	"github.com/pipevine/pipevine/pkg/metrics"
	"github.com/pipevine/pipevine/pkg/pipe"
	"github.com/pipevine/pipevine/pkg/pipeconf"
)

const definitions = `
pipelines:
  normalize:
    stages:
      - trim
      - lower
  guarded:
    on_cancel: discard
    stages:
      - trim
      - reject-empty
`

func stageRegistry() *pipeconf.Registry[string] {
	reg := pipeconf.NewRegistry[string]()
	reg.Register("trim", pipe.Transform("trim", func(_ context.Context, s string) (string, error) {
		return strings.TrimSpace(s), nil
	}))
	reg.Register("lower", pipe.Transform("lower", func(_ context.Context, s string) (string, error) {
		return strings.ToLower(s), nil
	}))
	reg.Register("reject-empty", pipe.Cancellable("reject-empty", func(_ context.Context, c *pipe.Canceller, s string, _ error) (string, error) {
		if s == "" {
			c.Cancel()
		}
		return s, nil
	}))
	return reg
}

func TestConfiguredPipelinesEndToEnd(t *testing.T) {
	multi, err := pipeconf.ParseMulti([]byte(definitions))
	testutil.AssertNoError(t, err)

	built, err := pipeconf.BuildAll(stageRegistry(), multi)
	testutil.AssertNoError(t, err)

	got, err := built["normalize"].ProcessUnsafe(context.Background(), "  GoPher  ")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, "gopher")

	// The guarded pipeline discards blank inputs instead of failing.
	kept := built["guarded"].ProcessAllSafe(context.Background(), []string{" a ", "   ", "b"})
	testutil.AssertSliceEqual(t, kept, []string{"a", "b"})
}

func TestConfiguredPipelineFeedsChain(t *testing.T) {
	multi, err := pipeconf.ParseMulti([]byte(definitions))
	testutil.AssertNoError(t, err)

	built, err := pipeconf.BuildAll(stageRegistry(), multi)
	testutil.AssertNoError(t, err)

	// Splice the configured pipeline into the source segment of a chain
	// that continues in the numeric domain.
	src := pipe.NewChain[string]("ingest")
	src.AddPipeline(built["normalize"])

	nums := pipe.Convert(src, "atoi", func(_ context.Context, s string) (int, error) {
		return strconv.Atoi(s)
	})
	nums.AddStage(pipe.Transform("square", func(_ context.Context, n int) (int, error) {
		return n * n, nil
	}))

	got, err := nums.ProcessUnsafe(context.Background(), "  12  ")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, 144)

	out := nums.Process(context.Background(), "twelve")
	testutil.AssertTrue(t, out.Failed())
}

func TestConfiguredPipelineWithMetrics(t *testing.T) {
	multi, err := pipeconf.ParseMulti([]byte(definitions))
	testutil.AssertNoError(t, err)

	built, err := pipeconf.BuildAll(stageRegistry(), multi)
	testutil.AssertNoError(t, err)

	reg := metrics.NewRegistry(prometheus.NewRegistry())
	p := built["normalize"].SetObserver(pipe.NewMetricsObserverWith(reg))

	p.ProcessAll(context.Background(), []string{"A", "B", "C"})

	testutil.AssertEqual(t, promtest.ToFloat64(reg.PipelineExecutions.WithLabelValues("normalize")), 3.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.StageExecutions.WithLabelValues("normalize", "trim")), 3.0)
}
