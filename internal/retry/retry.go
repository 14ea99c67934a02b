// Package retry provides the single retry-with-backoff helper used by every
// stage call in the pipeline.
package retry

import (
	"context"
	"time"
)

// Backoff maps a failed-attempt count (1-based) to the delay before the next
// call.
type Backoff func(attempt int) time.Duration

// Constant returns the same delay for every attempt.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Linear returns d multiplied by the attempt number.
func Linear(d time.Duration) Backoff {
	return func(attempt int) time.Duration { return d * time.Duration(attempt) }
}

// Options controls one Do invocation.
type Options struct {
	// MaxAttempts is the total number of failed calls allowed before Do
	// gives up and returns the last error.
	MaxAttempts int

	Backoff Backoff

	// Sleep performs the backoff wait. Defaults to a timer honoring ctx.
	Sleep func(ctx context.Context, d time.Duration) error

	// Retryable reports whether an error is worth retrying. Defaults to
	// retrying everything.
	Retryable func(err error) bool

	// OnRetry is called after each failed attempt that will be retried or
	// that exhausted the budget, with the updated attempt count.
	OnRetry func(attempt int, err error)
}

// Do calls fn until it succeeds, the error is not retryable, the context is
// done, or the shared attempt budget is exhausted.
//
// The attempt counter is passed by pointer so that consecutive stages of one
// item can share a single retry budget: failed attempts from an earlier Do
// count against a later one.
func Do(ctx context.Context, attempts *int, opts Options, fn func(context.Context) error) error {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepTimer
	}
	backoff := opts.Backoff
	if backoff == nil {
		backoff = Constant(0)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		if opts.Retryable != nil && !opts.Retryable(err) {
			return err
		}

		*attempts++
		if opts.OnRetry != nil {
			opts.OnRetry(*attempts, err)
		}
		if *attempts >= opts.MaxAttempts {
			return err
		}

		if serr := sleep(ctx, backoff(*attempts)); serr != nil {
			return err
		}
	}
}

func sleepTimer(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
