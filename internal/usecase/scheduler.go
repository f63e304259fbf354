package usecase

import (
	"context"
	"log/slog"
	"time"

	"EventsDigest/internal/ports"
)

// Job is one recurring run, e.g. Pipeline.RunDigest.
type Job func(ctx context.Context, now time.Time) error

// Scheduler wires the cron driver with a pipeline job.
type Scheduler struct {
	driver ports.Scheduler
	job    Job
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, job Job, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, job: job, logger: logger}
}

// Start registers the job with the driver. Failures of one run are logged and
// do not stop later runs.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.job == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		started := time.Now()
		if err := s.job(ctx, trigger); err != nil {
			s.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
			return
		}
		s.logger.Info("scheduled run finished", "trigger", trigger, "took", time.Since(started))
	})
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
