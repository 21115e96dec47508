package crawler

import (
	"context"
	"time"
)

// Retryer wraps an operation with bounded attempts and exponential backoff.
// Transient failures sleep base*2^attempt (attempt starting at 0) before the
// next try; terminal failures propagate immediately.
type Retryer struct {
	maxAttempts int
	base        time.Duration
	pause       func(ctx context.Context, d time.Duration)
}

// NewRetryer builds a Retryer allowing maxAttempts total attempts.
func NewRetryer(maxAttempts int, base time.Duration) *Retryer {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Retryer{
		maxAttempts: maxAttempts,
		base:        base,
		pause:       pauseCtx,
	}
}

// Do runs fn until it succeeds, fails terminally, or attempts run out.
// It returns the result, the number of attempts made, and the final error:
// nil on success, the terminal error as-is, or *RetryExhaustedError once
// every allowed attempt failed transiently.
func (r *Retryer) Do(ctx context.Context, fn func() ([]byte, error)) ([]byte, int, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt, err
		}
		out, err := fn()
		if err == nil {
			return out, attempt + 1, nil
		}
		if IsTerminal(err) {
			return nil, attempt + 1, err
		}
		lastErr = err
		if attempt < r.maxAttempts-1 {
			r.pause(ctx, r.base<<uint(attempt))
		}
	}
	return nil, r.maxAttempts, &RetryExhaustedError{Attempts: r.maxAttempts, Last: lastErr}
}

// pauseCtx sleeps for d or until the context finishes.
func pauseCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
