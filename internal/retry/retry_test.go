package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultOptions(), func(ctx context.Context) error {
		calls++
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	opts := Options{MaxAttempts: 3, BaseDelay: time.Millisecond, Exponential: false, Jitter: false}
	calls := 0
	err := Do(context.Background(), opts, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttemptsAndPropagatesLastError(t *testing.T) {
	opts := Options{MaxAttempts: 3, BaseDelay: time.Millisecond, Exponential: true, Jitter: true}
	calls := 0
	sentinel := errors.New("boom")
	err := Do(context.Background(), opts, func(ctx context.Context) error {
		calls++
		return sentinel
	}, nil)
	require.Error(t, err)
	assert.Equal(t, sentinel, err)
	assert.Equal(t, opts.MaxAttempts, calls)
}

func TestDo_NotifiedOnEachFailure(t *testing.T) {
	opts := Options{MaxAttempts: 3, BaseDelay: time.Millisecond, Exponential: false, Jitter: false}
	var notifications int
	_ = Do(context.Background(), opts, func(ctx context.Context) error {
		return errors.New("fail")
	}, func(err error, attempt int, delay time.Duration) {
		notifications++
	})
	assert.Equal(t, opts.MaxAttempts-1, notifications)
}

func TestDo_UnwindsOnCancellation(t *testing.T) {
	opts := Options{MaxAttempts: 5, BaseDelay: time.Second, Exponential: true, Jitter: false}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := Do(ctx, opts, func(ctx context.Context) error {
		calls++
		return errors.New("always fails")
	}, nil)
	elapsed := time.Since(start)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, elapsed, 900*time.Millisecond, "Do should not wait out the full backoff after cancellation")
}
