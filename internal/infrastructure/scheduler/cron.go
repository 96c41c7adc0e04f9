package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"MedDigest/internal/ports"
)

// CronScheduler runs registered stage jobs on cron expressions in the
// configured timezone.
type CronScheduler struct {
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler evaluating expressions in loc.
func NewCronScheduler(loc *time.Location) *CronScheduler {
	return &CronScheduler{cron: cron.New(cron.WithLocation(loc))}
}

// Schedule registers a job under a cron expression.
func (c *CronScheduler) Schedule(spec string, job func(time.Time)) error {
	if job == nil {
		return fmt.Errorf("nil job for spec %q", spec)
	}
	_, err := c.cron.AddFunc(spec, func() { job(time.Now()) })
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	return nil
}

// Start launches the cron loop and blocks until ctx is cancelled.
func (c *CronScheduler) Start(ctx context.Context) error {
	c.cron.Start()
	<-ctx.Done()
	<-c.cron.Stop().Done()
	return ctx.Err()
}

// Stop halts scheduling and waits for running jobs to finish.
func (c *CronScheduler) Stop(ctx context.Context) error {
	select {
	case <-c.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
