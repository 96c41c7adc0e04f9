package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"MedDigest/internal/domain"
	"MedDigest/internal/ports"
)

func TestSelectBand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		hour int
		want Band
	}{
		{7, BandMorning},
		{11, BandMorning},
		{12, BandAfternoon},
		{17, BandAfternoon},
		{18, BandEvening},
		{21, BandEvening},
		{22, BandMorning},
		{3, BandMorning},
	}

	for _, tc := range cases {
		at := time.Date(2026, time.May, 4, tc.hour, 30, 0, 0, time.UTC)
		if got := SelectBand(at); got != tc.want {
			t.Fatalf("hour %d: got %s, want %s", tc.hour, got, tc.want)
		}
	}
}

func TestSelectForPublishTypes(t *testing.T) {
	t.Parallel()

	morning := SelectForPublish(time.Date(2026, time.May, 4, 8, 0, 0, 0, time.UTC))
	if len(morning) != 2 || morning[0] != domain.TypeResearch || morning[1] != domain.TypeGuideline {
		t.Fatalf("morning types: %v", morning)
	}

	evening := SelectForPublish(time.Date(2026, time.May, 4, 20, 0, 0, 0, time.UTC))
	if len(evening) != 2 || evening[0] != domain.TypeCase || evening[1] != domain.TypeGuideline {
		t.Fatalf("evening types: %v", evening)
	}
}

type publishRepo struct {
	ports.Repository
	approved  []domain.Post
	published map[int64]string
	failed    map[int64]bool

	requestedTypes []domain.ContentType
}

func (r *publishRepo) FetchApprovedPosts(_ context.Context, types []domain.ContentType) ([]domain.Post, error) {
	r.requestedTypes = types
	return r.approved, nil
}

func (r *publishRepo) MarkPublished(_ context.Context, postID int64, ref string) error {
	if r.published == nil {
		r.published = map[int64]string{}
	}
	r.published[postID] = ref
	return nil
}

func (r *publishRepo) MarkPublishError(_ context.Context, postID int64) error {
	if r.failed == nil {
		r.failed = map[int64]bool{}
	}
	r.failed[postID] = true
	return nil
}

type fakePublisher struct {
	failOn int64
}

func (p *fakePublisher) Publish(_ context.Context, post domain.Post) (string, error) {
	if post.ID == p.failOn {
		return "", errors.New("send failed")
	}
	return "chan:100", nil
}

type noopPacer struct{}

func (noopPacer) Wait(ctx context.Context) error { return ctx.Err() }

func TestDispatcherRun(t *testing.T) {
	t.Parallel()

	repo := &publishRepo{approved: []domain.Post{
		{ID: 1, ContentType: domain.TypeResearch, Status: domain.StatusApproved},
		{ID: 2, ContentType: domain.TypeGuideline, Status: domain.StatusApproved},
	}}

	d := NewDispatcher(repo, &fakePublisher{}, noopPacer{}, nil)
	stats, err := d.Run(context.Background(), time.Date(2026, time.May, 4, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if stats.Processed != 2 {
		t.Fatalf("processed: got %d, want 2", stats.Processed)
	}
	if len(repo.requestedTypes) != 2 || repo.requestedTypes[0] != domain.TypeResearch {
		t.Fatalf("band types not applied: %v", repo.requestedTypes)
	}
	if repo.published[1] != "chan:100" || repo.published[2] != "chan:100" {
		t.Fatalf("message refs not recorded: %v", repo.published)
	}
}

func TestDispatcherMarksFailures(t *testing.T) {
	t.Parallel()

	repo := &publishRepo{approved: []domain.Post{
		{ID: 1, ContentType: domain.TypeResearch, Status: domain.StatusApproved},
		{ID: 2, ContentType: domain.TypeResearch, Status: domain.StatusApproved},
	}}

	d := NewDispatcher(repo, &fakePublisher{failOn: 1}, noopPacer{}, nil)
	stats, err := d.Run(context.Background(), time.Date(2026, time.May, 4, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if stats.Processed != 1 || stats.Errored != 1 {
		t.Fatalf("stats: got %+v", stats)
	}
	if !repo.failed[1] {
		t.Fatal("failed dispatch not marked as error")
	}
	if _, ok := repo.published[1]; ok {
		t.Fatal("failed post marked published")
	}
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	t.Parallel()

	repo := &publishRepo{approved: []domain.Post{{ID: 1, ContentType: domain.TypeResearch}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(repo, &fakePublisher{}, noopPacer{}, nil)
	if _, err := d.Run(ctx, time.Date(2026, time.May, 4, 8, 0, 0, 0, time.UTC)); err == nil {
		t.Fatal("cancelled run did not fail")
	}
}
