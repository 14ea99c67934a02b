// Package pacing implements the fixed wait intervals inserted between
// pipeline operations to stay clear of upstream rate limits.
package pacing

import (
	"context"
	"time"
)

// Pacer performs a fixed-duration wait. Implementations must return early
// with the context error when the context is canceled.
type Pacer interface {
	Wait(ctx context.Context, d time.Duration) error
}

// TickFunc observes a running countdown. remaining is the whole seconds left
// before the wait ends; it reaches the observer once per second.
type TickFunc func(remaining time.Duration)

// Sleeper is a real-time Pacer that emits a second-by-second countdown so
// the dashboard can display a live timer.
type Sleeper struct {
	onTick TickFunc
}

func NewSleeper(onTick TickFunc) *Sleeper {
	return &Sleeper{onTick: onTick}
}

// Wait blocks for d, ticking down once per second. Sub-second waits block
// without ticking.
func (s *Sleeper) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	if s.onTick == nil || d < time.Second {
		return sleep(ctx, d)
	}

	deadline := time.Now().Add(d)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	s.onTick(d.Round(time.Second))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			remaining := deadline.Sub(now)
			if remaining <= 0 {
				s.onTick(0)
				return nil
			}
			s.onTick(remaining.Round(time.Second))
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Nop is a Pacer that returns immediately. Used in tests and when pacing is
// disabled by configuration.
type Nop struct{}

func (Nop) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
