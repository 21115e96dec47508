package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryerSucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	r := NewRetryer(4, 10*time.Millisecond)
	var pauses []time.Duration
	r.pause = func(_ context.Context, d time.Duration) {
		pauses = append(pauses, d)
	}

	calls := 0
	body, attempts, err := r.Do(context.Background(), func() ([]byte, error) {
		calls++
		if calls < 3 {
			return nil, &NetworkError{URL: "u", Cause: errors.New("timeout")}
		}
		return []byte("ok"), nil
	})

	require.NoError(t, err)
	require.Equal(t, []byte("ok"), body)
	require.Equal(t, 3, attempts)
	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, pauses)
}

func TestRetryerExhaustsTransientFailures(t *testing.T) {
	t.Parallel()

	r := NewRetryer(3, time.Millisecond)
	r.pause = func(context.Context, time.Duration) {}

	cause := &NetworkError{URL: "u", Cause: errors.New("connection reset")}
	calls := 0
	_, attempts, err := r.Do(context.Background(), func() ([]byte, error) {
		calls++
		return nil, cause
	})

	require.Equal(t, 3, calls)
	require.Equal(t, 3, attempts)
	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)
	require.ErrorIs(t, err, cause.Cause)
}

func TestRetryerTerminalFailureShortCircuits(t *testing.T) {
	t.Parallel()

	r := NewRetryer(5, time.Millisecond)
	r.pause = func(context.Context, time.Duration) {
		t.Fatal("terminal failure must not back off")
	}

	calls := 0
	_, attempts, err := r.Do(context.Background(), func() ([]byte, error) {
		calls++
		return nil, &NotFoundError{URL: "u"}
	})

	require.Equal(t, 1, calls)
	require.Equal(t, 1, attempts)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRetryerHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetryer(3, time.Millisecond)
	_, attempts, err := r.Do(ctx, func() ([]byte, error) {
		t.Fatal("must not attempt after cancellation")
		return nil, nil
	})

	require.Zero(t, attempts)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRetryerClampsAttemptsToOne(t *testing.T) {
	t.Parallel()

	r := NewRetryer(0, time.Millisecond)
	calls := 0
	_, attempts, err := r.Do(context.Background(), func() ([]byte, error) {
		calls++
		return nil, &NetworkError{URL: "u", Cause: errors.New("boom")}
	})

	require.Equal(t, 1, calls)
	require.Equal(t, 1, attempts)
	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
}
