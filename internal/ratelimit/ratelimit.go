package ratelimit

import (
	"context"
	"time"
)

// Limiter paces consecutive listing checks.
type Limiter interface {
	Wait(ctx context.Context) error
}

// FixedDelay pauses for a constant duration on every Wait, regardless of how
// long the work between calls took.
type FixedDelay struct {
	delay time.Duration
}

func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{delay: delay}
}

func (f *FixedDelay) Wait(ctx context.Context) error {
	if f.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(f.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
