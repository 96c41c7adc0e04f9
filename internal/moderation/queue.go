package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"MedDigest/internal/domain"
	"MedDigest/internal/ports"
)

// Queue delivers pending posts to the moderator, grouped by
// specialization and ordered oldest-generated-first within a group.
// The pacer spaces sends; cancellation stops issuing new ones.
type Queue struct {
	repo   ports.Repository
	ui     ports.ModerationUI
	pacer  ports.Pacer
	logger *slog.Logger
}

// NewQueue wires the delivery dependencies.
func NewQueue(repo ports.Repository, ui ports.ModerationUI, pacer ports.Pacer, logger *slog.Logger) *Queue {
	return &Queue{repo: repo, ui: ui, pacer: pacer, logger: logger}
}

// DeliverPending sends every pending post of the given specializations
// for review. A failed send counts as errored and the batch continues.
func (q *Queue) DeliverPending(ctx context.Context, specs []domain.Specialization) (domain.BatchStats, error) {
	var stats domain.BatchStats

	for _, spec := range specs {
		posts, err := q.repo.FetchPendingPosts(ctx, spec)
		if err != nil {
			return stats, fmt.Errorf("fetch pending %s: %w", spec, err)
		}
		if len(posts) == 0 {
			continue
		}

		q.info("moderation group", "specialization", spec, "posts", len(posts))

		for i, post := range posts {
			if err := q.pacer.Wait(ctx); err != nil {
				return stats, fmt.Errorf("pacing aborted: %w", err)
			}
			if err := q.ui.SendForReview(ctx, post, i+1, len(posts)); err != nil {
				stats.Errored++
				q.warn("send for review failed", "post", post.ID, "error", err)
				continue
			}
			stats.Processed++
		}
	}

	return stats, nil
}

func (q *Queue) info(msg string, args ...any) {
	if q.logger != nil {
		q.logger.Info(msg, args...)
	}
}

func (q *Queue) warn(msg string, args ...any) {
	if q.logger != nil {
		q.logger.Warn(msg, args...)
	}
}
