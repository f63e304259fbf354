package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"EventsDigest/internal/ports"
)

// CronScheduler runs a job on a standard five-field cron expression in a fixed zone.
type CronScheduler struct {
	spec string
	loc  *time.Location
	log  *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for spec evaluated in loc.
func NewCronScheduler(spec string, loc *time.Location, log *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &CronScheduler{spec: spec, loc: loc, log: log}
}

// Start registers job and starts the cron loop. A second Start is a no-op.
// The job receives the trigger time in the scheduler zone.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	cr := cron.New(cron.WithLocation(c.loc))
	if _, err := cr.AddFunc(c.spec, func() {
		if ctx.Err() != nil {
			return
		}
		job(time.Now().In(c.loc))
	}); err != nil {
		return fmt.Errorf("parse cron %q: %w", c.spec, err)
	}

	cr.Start()
	c.cron = cr

	entries := cr.Entries()
	if len(entries) > 0 {
		c.log.Info("scheduler started", "spec", c.spec, "next", entries[0].Next)
	}
	return nil
}

// Stop halts the loop and waits for a running job until ctx is done.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()

	if cr == nil {
		return nil
	}

	select {
	case <-cr.Stop().Done():
		c.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait running job: %w", ctx.Err())
	}
}
