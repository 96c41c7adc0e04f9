package pacing

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"MedDigest/internal/ports"
)

// Limiter spaces outbound sends by a fixed interval. It replaces
// inline sleeps so batch cancellation and tests do not need real
// wall-clock waits.
type Limiter struct {
	limiter *rate.Limiter
}

var _ ports.Pacer = (*Limiter)(nil)

// NewLimiter allows one send per interval; the first send passes
// immediately. A non-positive interval disables pacing.
func NewLimiter(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next send is allowed or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
