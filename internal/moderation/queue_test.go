package moderation

import (
	"context"
	"errors"
	"testing"

	"MedDigest/internal/domain"
	"MedDigest/internal/ports"
)

type pendingRepo struct {
	ports.Repository
	pending map[domain.Specialization][]domain.Post
}

func (r *pendingRepo) FetchPendingPosts(_ context.Context, spec domain.Specialization) ([]domain.Post, error) {
	return r.pending[spec], nil
}

type reviewCapture struct {
	sent     []domain.Post
	position []int
	total    []int
	failOn   int64
}

func (c *reviewCapture) SendForReview(_ context.Context, post domain.Post, position, total int) error {
	if post.ID == c.failOn {
		return errors.New("telegram unavailable")
	}
	c.sent = append(c.sent, post)
	c.position = append(c.position, position)
	c.total = append(c.total, total)
	return nil
}

type countingPacer struct{ waits int }

func (p *countingPacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.waits++
	return nil
}

func TestDeliverPendingGroupsAndPositions(t *testing.T) {
	t.Parallel()

	repo := &pendingRepo{pending: map[domain.Specialization][]domain.Post{
		domain.SpecCardiology: {
			{ID: 1, Specialization: domain.SpecCardiology},
			{ID: 2, Specialization: domain.SpecCardiology},
		},
		domain.SpecTherapy: {
			{ID: 3, Specialization: domain.SpecTherapy},
		},
	}}
	ui := &reviewCapture{}
	pacer := &countingPacer{}

	q := NewQueue(repo, ui, pacer, nil)
	stats, err := q.DeliverPending(context.Background(),
		[]domain.Specialization{domain.SpecCardiology, domain.SpecTherapy})
	if err != nil {
		t.Fatalf("DeliverPending error: %v", err)
	}

	if stats.Processed != 3 {
		t.Fatalf("processed: got %d, want 3", stats.Processed)
	}
	if pacer.waits != 3 {
		t.Fatalf("pacer waits: got %d, want 3", pacer.waits)
	}

	wantIDs := []int64{1, 2, 3}
	for i, post := range ui.sent {
		if post.ID != wantIDs[i] {
			t.Fatalf("send order: got %v", ui.sent)
		}
	}
	if ui.position[0] != 1 || ui.position[1] != 2 || ui.total[0] != 2 {
		t.Fatalf("queue positions wrong: pos=%v total=%v", ui.position, ui.total)
	}
	if ui.position[2] != 1 || ui.total[2] != 1 {
		t.Fatalf("second group positions wrong: pos=%v total=%v", ui.position, ui.total)
	}
}

func TestDeliverPendingContinuesAfterSendFailure(t *testing.T) {
	t.Parallel()

	repo := &pendingRepo{pending: map[domain.Specialization][]domain.Post{
		domain.SpecCardiology: {{ID: 1}, {ID: 2}, {ID: 3}},
	}}
	ui := &reviewCapture{failOn: 2}

	q := NewQueue(repo, ui, &countingPacer{}, nil)
	stats, err := q.DeliverPending(context.Background(), []domain.Specialization{domain.SpecCardiology})
	if err != nil {
		t.Fatalf("DeliverPending error: %v", err)
	}

	if stats.Processed != 2 || stats.Errored != 1 {
		t.Fatalf("stats: got %+v, want 2 processed / 1 errored", stats)
	}
}

func TestDeliverPendingStopsOnCancel(t *testing.T) {
	t.Parallel()

	repo := &pendingRepo{pending: map[domain.Specialization][]domain.Post{
		domain.SpecCardiology: {{ID: 1}},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := NewQueue(repo, &reviewCapture{}, &countingPacer{}, nil)
	if _, err := q.DeliverPending(ctx, []domain.Specialization{domain.SpecCardiology}); err == nil {
		t.Fatal("cancelled delivery did not fail")
	}
}
