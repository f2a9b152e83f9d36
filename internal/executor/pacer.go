package executor

import (
	"context"
	"time"
)

// DefaultPaceInterval is the fixed gap kept after every submission so the
// public execution service's shared rate limit is not exceeded.
const DefaultPaceInterval = 205 * time.Millisecond

// Pacer is invoked after every submission, including the last one of a run.
type Pacer interface {
	Pace(ctx context.Context) error
}

// PacerFunc adapts a function to the Pacer interface.
type PacerFunc func(ctx context.Context) error

// Pace calls f(ctx).
func (f PacerFunc) Pace(ctx context.Context) error {
	return f(ctx)
}

// FixedPacer sleeps for Interval. A non-positive Interval does not wait.
type FixedPacer struct {
	Interval time.Duration
}

// NewFixedPacer creates a FixedPacer with the given interval.
func NewFixedPacer(interval time.Duration) *FixedPacer {
	return &FixedPacer{Interval: interval}
}

// Pace blocks for the interval or until ctx is done.
func (p *FixedPacer) Pace(ctx context.Context) error {
	if p.Interval <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoPacer never waits. It is meant for tests and local service instances.
type NoPacer struct{}

// Pace returns immediately.
func (NoPacer) Pace(ctx context.Context) error {
	return nil
}
