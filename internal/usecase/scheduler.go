package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MedDigest/internal/config"
	"MedDigest/internal/ports"
)

// Scheduler registers every pipeline stage with the cron driver.
type Scheduler struct {
	driver ports.Scheduler
	jobs   *Jobs
	cfg    config.SchedulerConfig
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring stage runs.
func NewScheduler(driver ports.Scheduler, jobs *Jobs, cfg config.SchedulerConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, jobs: jobs, cfg: cfg, logger: logger}
}

// Start registers each stage at its configured cadence and runs the
// driver. Stage errors are logged, never fatal to the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.jobs == nil {
		return nil
	}

	stages := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"collect", s.cfg.Process, func(ctx context.Context) error {
			_, err := s.jobs.CollectAndProcess(ctx)
			return err
		}},
		{"score", s.cfg.Score, func(ctx context.Context) error {
			_, err := s.jobs.ScoreArticles(ctx)
			return err
		}},
		{"generate", s.cfg.Generate, func(ctx context.Context) error {
			_, err := s.jobs.GeneratePosts(ctx)
			return err
		}},
		{"moderate", s.cfg.Moderate, func(ctx context.Context) error {
			_, err := s.jobs.SendForModeration(ctx)
			return err
		}},
		{"publish", s.cfg.Publish, func(ctx context.Context) error {
			_, err := s.jobs.PublishApproved(ctx)
			return err
		}},
		{"revisions", s.cfg.Revisions, func(ctx context.Context) error {
			_, err := s.jobs.ReportRevisionQueue(ctx)
			return err
		}},
	}

	for _, stage := range stages {
		stage := stage
		err := s.driver.Schedule(stage.spec, func(trigger time.Time) {
			s.logger.Info("stage triggered", "stage", stage.name, "at", trigger.Format(time.RFC3339))
			if err := stage.run(ctx); err != nil {
				s.logger.Error("stage failed", "stage", stage.name, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule %s: %w", stage.name, err)
		}
	}

	return s.driver.Start(ctx)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
