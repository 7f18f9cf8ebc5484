package modules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// AsynqPeriodicTask is a task enqueued on a cron spec ("@every 15m",
// "0 9 * * *").
type AsynqPeriodicTask struct {
	Cronspec string
	Task     *asynq.Task
	Options  []asynq.Option
}

type AsynqScheduler struct {
	Redis    asynq.RedisClientOpt
	Location string
}

func (s AsynqScheduler) Run(
	ctx context.Context,
	g *errgroup.Group,
	tasks ...AsynqPeriodicTask,
) {
	g.Go(func() error {
		opts := &asynq.SchedulerOpts{
			Logger: newAsynqLogger(logger(ctx)),
		}

		if s.Location != "" {
			loc, err := time.LoadLocation(s.Location)
			if err != nil {
				return fmt.Errorf("time.LoadLocation: %w", err)
			}

			opts.Location = loc
		}

		scheduler := asynq.NewScheduler(s.Redis, opts)

		for _, t := range tasks {
			entryID, err := scheduler.Register(t.Cronspec, t.Task, t.Options...)
			if err != nil {
				return fmt.Errorf("scheduler.Register %s: %w", t.Task.Type(), err)
			}

			logger(ctx).Info(
				"periodic task registered",
				slog.String("task", t.Task.Type()),
				slog.String("cronspec", t.Cronspec),
				slog.String("entry-id", entryID),
			)
		}

		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("scheduler.Start: %w", err)
		}

		logger(ctx).Info("asynq scheduler started", slog.String("redis-address", s.Redis.Addr))

		<-ctx.Done()

		scheduler.Shutdown()

		logger(ctx).Info("asynq scheduler stopped", slog.String("redis-address", s.Redis.Addr))

		return nil
	})
}
