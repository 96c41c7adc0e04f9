package moderation

import (
	"context"
	"fmt"
	"time"

	"MedDigest/internal/domain"
	"MedDigest/internal/ports"
)

// Transition is the total transition function of the moderation state
// machine. Decisions only apply to pending posts; anything else is an
// invalid transition and must not mutate the post.
func Transition(current domain.PostStatus, decision domain.DecisionKind) (domain.PostStatus, error) {
	if current != domain.StatusPending {
		return current, &domain.InvalidTransitionError{From: current, Decision: decision}
	}

	switch decision {
	case domain.DecisionApprove:
		return domain.StatusApproved, nil
	case domain.DecisionReject:
		return domain.StatusRejected, nil
	case domain.DecisionRevision:
		return domain.StatusRevision, nil
	default:
		return current, &domain.InvalidTransitionError{From: current, Decision: decision}
	}
}

// Service applies moderator decisions under the single-writer-per-post
// discipline: the repository only commits a transition when the
// persisted status still matches the state the decision was computed
// against, so a replayed decision cannot double-apply.
type Service struct {
	repo ports.Repository
	now  func() time.Time
}

// NewService wires the repository; now defaults to time.Now.
func NewService(repo ports.Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// Decide validates and persists one moderator verdict. A revision
// verdict requires a comment before the cycle is considered closed.
func (s *Service) Decide(ctx context.Context, postID int64, kind domain.DecisionKind, comment string) error {
	if _, err := Transition(domain.StatusPending, kind); err != nil {
		return err
	}
	if kind == domain.DecisionRevision && comment == "" {
		return &domain.ValidationError{Reason: "revision decision requires a comment"}
	}

	decision := domain.ModerationDecision{
		Kind:    kind,
		At:      s.now(),
		Comment: comment,
	}
	if err := s.repo.ApplyModerationDecision(ctx, postID, domain.StatusPending, decision); err != nil {
		return fmt.Errorf("apply decision %s to post %d: %w", kind, postID, err)
	}
	return nil
}

// Resubmit closes a revision cycle: the edited content replaces the
// body and the post re-enters pending as a new cycle. Previous
// decisions stay on record for audit.
func (s *Service) Resubmit(ctx context.Context, postID int64, newContent string) error {
	if newContent == "" {
		return &domain.ValidationError{Reason: "revised content is empty"}
	}
	if err := s.repo.ApplyRevisedContent(ctx, postID, newContent); err != nil {
		return fmt.Errorf("resubmit post %d: %w", postID, err)
	}
	return nil
}
