package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"MedDigest/internal/config"
	"MedDigest/internal/infrastructure/rss"
	"MedDigest/internal/infrastructure/scheduler"
	"MedDigest/internal/infrastructure/storage"
	"MedDigest/internal/infrastructure/telegram"
	"MedDigest/internal/logging"
	"MedDigest/internal/moderation"
	"MedDigest/internal/pacing"
	"MedDigest/internal/pipeline"
	"MedDigest/internal/publish"
	"MedDigest/internal/usecase"
)

// Application wires configuration to the pipeline stages and owns the
// database handle for its lifetime.
type Application struct {
	cfg       config.Config
	db        *sql.DB
	scheduler *usecase.Scheduler
	logger    *slog.Logger
}

// New builds the full application from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo := storage.NewPostgresRepository(db)
	source := rss.NewSource(cfg.Feeds, baseLogger)
	publisher := telegram.NewPublisher(cfg.Telegram.PublishBotToken, cfg.Telegram.Channels)
	moderationUI := telegram.NewModerationSender(cfg.Telegram.ModerationBotToken, cfg.Telegram.ModeratorChatID)

	jobs := usecase.NewJobs(usecase.JobsDeps{
		Config:     cfg,
		Source:     source,
		Repository: repo,
		Dedup:      pipeline.NewDeduplicator(repo, cfg.Pipeline, baseLogger.With("component", "dedup")),
		Classifier: pipeline.NewClassifier(cfg.Classification),
		Scorer:     pipeline.NewScorer(cfg.Scoring),
		Generator:  pipeline.NewGenerator(cfg.Generation, cfg.Pipeline),
		Moderation: moderation.NewService(repo, nil),
		Queue: moderation.NewQueue(repo, moderationUI,
			pacing.NewLimiter(cfg.Pipeline.ModerationPace()),
			baseLogger.With("component", "moderation.queue")),
		Dispatcher: publish.NewDispatcher(repo, publisher,
			pacing.NewLimiter(cfg.Pipeline.PublishPace()),
			baseLogger.With("component", "publish")),
		Logger: baseLogger.With("component", "jobs"),
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, jobs, cfg.Scheduler, baseLogger.With("component", "scheduler"))

	return &Application{
		cfg:       cfg,
		db:        db,
		scheduler: sched,
		logger:    baseLogger.With("component", "app"),
	}, nil
}

// Run pings the database and blocks running the stage scheduler until
// ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	a.logger.Info("starting", "timezone", a.cfg.Scheduler.Location().String())

	defer func() {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}()

	return a.scheduler.Start(ctx)
}
