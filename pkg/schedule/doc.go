// Package schedule runs pipelines on cron schedules.
//
// A Scheduler owns a cron runner and a registry of named jobs. PipelineJob
// adapts a pipeline plus an input source and outcome sink into a Job:
//
//	sched := schedule.New(schedule.Config{Logger: log})
//	job := schedule.PipelineJob(ingest,
//		func(ctx context.Context) (Order, error) { return nextOrder(ctx) },
//		func(ctx context.Context, out outcome.Outcome[Order]) error {
//			return store(ctx, out)
//		})
//	if err := sched.ScheduleCron("ingest", "0 */5 * * * *", job); err != nil {
//		return err
//	}
//	sched.Start()
//	defer func() { <-sched.Stop() }()
//
// Cron expressions use the six-field form with a leading seconds term.
// Per-job run and failure counts are recorded when Config.Metrics is set.
package schedule
