package schedule

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/pipevine/pipevine/internal/testutil"
	"github.com/pipevine/pipevine/pkg/metrics"
	"github.com/pipevine/pipevine/pkg/outcome"
	"github.com/pipevine/pipevine/pkg/pipe"
)

func noopJob(context.Context) error { return nil }

func TestScheduleCronValidation(t *testing.T) {
	s := New(Config{})

	testutil.AssertError(t, s.ScheduleCron("", "* * * * * *", noopJob))
	testutil.AssertError(t, s.ScheduleCron("job", "* * * * * *", nil))

	err := s.ScheduleCron("job", "not a cron expr", noopJob)
	testutil.AssertError(t, err)
	testutil.AssertTrue(t, strings.Contains(err.Error(), "invalid cron expression"))
}

func TestScheduleCronRejectsDuplicateID(t *testing.T) {
	s := New(Config{})
	testutil.AssertNoError(t, s.ScheduleCron("job", "0 0 * * * *", noopJob))

	err := s.ScheduleCron("job", "0 0 * * * *", noopJob)
	testutil.AssertError(t, err)
	testutil.AssertTrue(t, strings.Contains(err.Error(), "already registered"))
}

func TestScheduleEveryValidation(t *testing.T) {
	s := New(Config{})
	testutil.AssertError(t, s.ScheduleEvery("job", 0, noopJob))
	testutil.AssertNoError(t, s.ScheduleEvery("job", time.Hour, noopJob))
}

func TestCancel(t *testing.T) {
	s := New(Config{})
	testutil.AssertNoError(t, s.ScheduleCron("job", "0 0 * * * *", noopJob))

	testutil.AssertTrue(t, s.Cancel("job"))
	testutil.AssertEqual(t, s.Cancel("job"), false)

	// The id is free for reuse after cancellation.
	testutil.AssertNoError(t, s.ScheduleCron("job", "0 0 * * * *", noopJob))
}

func TestListReportsRegisteredJobs(t *testing.T) {
	s := New(Config{})
	testutil.AssertNoError(t, s.ScheduleCron("a", "0 0 * * * *", noopJob))
	testutil.AssertNoError(t, s.ScheduleCron("b", "0 30 * * * *", noopJob))

	tasks := s.List()
	testutil.AssertEqual(t, len(tasks), 2)
}

func TestRunnerRecordsMetricsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	s := New(Config{
		Logger:  zerolog.New(&buf).Level(zerolog.DebugLevel),
		Metrics: reg,
	})

	boom := errors.New("boom")
	calls := 0
	run := s.runner("flaky", func(context.Context) error {
		calls++
		if calls == 1 {
			return boom
		}
		return nil
	})

	run()
	run()

	testutil.AssertEqual(t, promtest.ToFloat64(reg.ScheduleRuns.WithLabelValues("flaky")), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.ScheduleFailures.WithLabelValues("flaky")), 1.0)

	logs := buf.String()
	testutil.AssertTrue(t, strings.Contains(logs, `"job":"flaky"`))
	testutil.AssertTrue(t, strings.Contains(logs, `"error":"boom"`))
	testutil.AssertTrue(t, strings.Contains(logs, "scheduled run"))
}

func TestStopCancelsJobContext(t *testing.T) {
	s := New(Config{})
	<-s.Stop()
	testutil.AssertErrorIs(t, s.ctx.Err(), context.Canceled)
}

func TestPipelineJob(t *testing.T) {
	p := pipe.New[int]("doubler")
	p.AddStage(pipe.Transform("double", func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	}))

	var delivered []int
	job := PipelineJob(p,
		func(context.Context) (int, error) { return 21, nil },
		func(_ context.Context, out outcome.Outcome[int]) error {
			delivered = append(delivered, out.Value())
			return nil
		})

	testutil.AssertNoError(t, job(context.Background()))
	testutil.AssertSliceEqual(t, delivered, []int{42})
}

func TestPipelineJobSourceError(t *testing.T) {
	dry := errors.New("dry")
	p := pipe.New[int]("doubler")
	p.AddStage(pipe.Transform("double", func(_ context.Context, n int) (int, error) {
		t.Fatal("pipeline must not run when the source fails")
		return n, nil
	}))

	job := PipelineJob(p, func(context.Context) (int, error) { return 0, dry }, nil)
	testutil.AssertErrorIs(t, job(context.Background()), dry)
}

func TestPipelineJobSurfacesCapturedFailure(t *testing.T) {
	boom := errors.New("boom")
	p := pipe.New[int]("failing")
	p.AddStage(pipe.Transform("explode", func(_ context.Context, _ int) (int, error) {
		return 0, boom
	}))

	var sawFailed bool
	job := PipelineJob(p,
		func(context.Context) (int, error) { return 1, nil },
		func(_ context.Context, out outcome.Outcome[int]) error {
			sawFailed = out.Failed()
			return nil
		})

	testutil.AssertErrorIs(t, job(context.Background()), boom)
	testutil.AssertTrue(t, sawFailed)
}
