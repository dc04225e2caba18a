package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pipevine/pipevine/pkg/metrics"
	"github.com/pipevine/pipevine/pkg/outcome"
	"github.com/pipevine/pipevine/pkg/pipe"
)

// Job is a unit of scheduled work. The context carries the scheduler's
// lifetime: jobs should return promptly once it is done.
type Job func(ctx context.Context) error

// Task describes one registered job.
type Task struct {
	ID   string
	Next time.Time
	Prev time.Time
}

// Config holds scheduler configuration. The zero value is usable.
type Config struct {
	// Location for cron expression evaluation. Defaults to time.Local.
	Location *time.Location

	// Logger for run logging. Defaults to a disabled logger.
	Logger zerolog.Logger

	// Metrics records per-job run and failure counts. Nil disables
	// recording.
	Metrics *metrics.Registry
}

// Scheduler runs registered jobs on cron schedules. Expressions use the
// six-field form with a leading seconds term, e.g. "0 */5 * * * *".
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
	reg  *metrics.Registry

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a stopped scheduler; call Start to begin running jobs.
func New(cfg Config) *Scheduler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		log:     cfg.Logger,
		reg:     cfg.Metrics,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
	}
}

// ScheduleCron registers job under id to run per the cron expression.
// Registering an id twice is an error; Cancel the existing job first.
func (s *Scheduler) ScheduleCron(id, expr string, job Job) error {
	if id == "" {
		return fmt.Errorf("schedule: job ID cannot be empty")
	}
	if job == nil {
		return fmt.Errorf("schedule: job cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		return fmt.Errorf("schedule: job %q already registered", id)
	}

	entry, err := s.cron.AddFunc(expr, s.runner(id, job))
	if err != nil {
		return fmt.Errorf("schedule: job %q: invalid cron expression %q: %w", id, expr, err)
	}
	s.entries[id] = entry
	return nil
}

// ScheduleEvery registers job under id to run at a fixed interval.
func (s *Scheduler) ScheduleEvery(id string, interval time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("schedule: job %q: interval must be positive, got %v", id, interval)
	}
	if id == "" {
		return fmt.Errorf("schedule: job ID cannot be empty")
	}
	if job == nil {
		return fmt.Errorf("schedule: job cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		return fmt.Errorf("schedule: job %q already registered", id)
	}

	s.entries[id] = s.cron.Schedule(cron.Every(interval), cron.FuncJob(s.runner(id, job)))
	return nil
}

// runner adapts a Job to a cron func, recording run metrics and logs.
func (s *Scheduler) runner(id string, job Job) func() {
	return func() {
		start := time.Now()
		err := job(s.ctx)

		if s.reg != nil {
			s.reg.ScheduleRuns.WithLabelValues(id).Inc()
			if err != nil {
				s.reg.ScheduleFailures.WithLabelValues(id).Inc()
			}
		}

		evt := s.log.Debug()
		if err != nil {
			evt = s.log.Warn().Err(err)
		}
		evt.Str("job", id).
			Dur("duration", time.Since(start)).
			Msg("scheduled run")
	}
}

// Cancel removes the job registered under id, reporting whether it existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return false
	}
	s.cron.Remove(entry)
	delete(s.entries, id)
	return true
}

// List returns the registered tasks ordered by next run time.
func (s *Scheduler) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]Task, 0, len(s.entries))
	for id, entryID := range s.entries {
		e := s.cron.Entry(entryID)
		tasks = append(tasks, Task{ID: id, Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Next.Before(tasks[j].Next) })
	return tasks
}

// Start begins running jobs in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling, cancels the job context, and returns a channel
// closed once in-flight runs complete.
func (s *Scheduler) Stop() <-chan struct{} {
	s.cancel()
	return s.cron.Stop().Done()
}

// PipelineJob binds a pipeline to an input source and an outcome sink,
// producing a Job that pulls one input per run, processes it, and hands the
// outcome to the sink. A source error is returned without invoking the
// pipeline; a captured pipeline failure is surfaced as the run error after
// the sink has seen the outcome.
func PipelineJob[T any](p *pipe.Pipeline[T], source func(ctx context.Context) (T, error), sink func(ctx context.Context, out outcome.Outcome[T]) error) Job {
	return func(ctx context.Context) error {
		in, err := source(ctx)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}

		out := p.Process(ctx, in)
		if sink != nil {
			if err := sink(ctx, out); err != nil {
				return fmt.Errorf("sink: %w", err)
			}
		}
		return out.Err()
	}
}
