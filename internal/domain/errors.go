package domain

import (
	"errors"
	"fmt"
)

// ErrDuplicate marks a document rejected by the dedup gate. Not an
// error condition for the batch; counted as skipped.
var ErrDuplicate = errors.New("duplicate document")

// ValidationError marks content that failed a quality gate. The item
// is dropped without retry.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// InvalidTransitionError is returned when a moderation decision does
// not apply to the post's current status. The post is not mutated.
type InvalidTransitionError struct {
	From     PostStatus
	Decision DecisionKind
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s from status %s", e.Decision, e.From)
}

// ConfigError marks missing dictionaries, weights, or thresholds.
// It aborts the run before any item is processed.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration invalid: %s", e.Field)
}

// TransientError wraps a collaborator I/O failure on one item; the
// batch logs it, counts it as errored, and continues.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
