package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MedDigest/internal/domain"
	"MedDigest/internal/ports"
)

// Band is a wall-clock window authorizing a subset of content types
// for publication.
type Band string

const (
	BandMorning   Band = "morning"
	BandAfternoon Band = "afternoon"
	BandEvening   Band = "evening"
)

var bandTypes = map[Band][]domain.ContentType{
	BandMorning:   {domain.TypeResearch, domain.TypeGuideline},
	BandAfternoon: {domain.TypeNews, domain.TypeGeneral},
	BandEvening:   {domain.TypeCase, domain.TypeGuideline},
}

// SelectBand maps wall-clock time into a publication band. Hours
// outside every band fall back to the morning slot.
func SelectBand(now time.Time) Band {
	hour := now.Hour()
	switch {
	case hour >= 7 && hour < 12:
		return BandMorning
	case hour >= 12 && hour < 18:
		return BandAfternoon
	case hour >= 18 && hour < 22:
		return BandEvening
	default:
		return BandMorning
	}
}

// SelectForPublish returns the content types authorized at the given
// time.
func SelectForPublish(now time.Time) []domain.ContentType {
	return bandTypes[SelectBand(now)]
}

// Dispatcher sends approved posts of the current band through the
// publisher. Each post reaches published or error exactly once;
// failures wait for the next scheduled run.
type Dispatcher struct {
	repo      ports.Repository
	publisher ports.Publisher
	pacer     ports.Pacer
	logger    *slog.Logger
}

// NewDispatcher wires the publish dependencies.
func NewDispatcher(repo ports.Repository, publisher ports.Publisher, pacer ports.Pacer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, publisher: publisher, pacer: pacer, logger: logger}
}

// Run dispatches one publication slot. Cancellation stops issuing new
// dispatches; already-dispatched posts keep their outcome.
func (d *Dispatcher) Run(ctx context.Context, now time.Time) (domain.BatchStats, error) {
	var stats domain.BatchStats

	band := SelectBand(now)
	types := bandTypes[band]
	d.info("publish slot", "band", band, "types", fmt.Sprint(types))

	posts, err := d.repo.FetchApprovedPosts(ctx, types)
	if err != nil {
		return stats, fmt.Errorf("fetch approved: %w", err)
	}
	if len(posts) == 0 {
		return stats, nil
	}

	for _, post := range posts {
		if err := d.pacer.Wait(ctx); err != nil {
			return stats, fmt.Errorf("pacing aborted: %w", err)
		}

		ref, err := d.publisher.Publish(ctx, post)
		if err != nil {
			stats.Errored++
			d.warn("publish failed", "post", post.ID, "error", err)
			if markErr := d.repo.MarkPublishError(ctx, post.ID); markErr != nil {
				d.warn("mark error failed", "post", post.ID, "error", markErr)
			}
			continue
		}

		if err := d.repo.MarkPublished(ctx, post.ID, ref); err != nil {
			stats.Errored++
			d.warn("mark published failed", "post", post.ID, "error", err)
			continue
		}
		stats.Processed++
	}

	return stats, nil
}

func (d *Dispatcher) info(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}

func (d *Dispatcher) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
