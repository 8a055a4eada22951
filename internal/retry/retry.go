// Package retry implements the core's bounded-retry-with-backoff wrapper
// (C1): a higher-order function over any fallible operation, never an
// ad-hoc try/retry ladder inlined at each call site.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Options configures a retry policy. The zero value is not meaningful; use
// DefaultOptions() and override fields as needed.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Exponential bool
	Jitter      bool
}

// DefaultOptions matches spec §4.1: 5 attempts, 2s base delay, exponential
// backoff with jitter.
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		Exponential: true,
		Jitter:      true,
	}
}

// Op is any fallible operation Do can wrap. It receives the caller's
// context so it can honor cancellation internally (e.g. to bound an RPC
// call), independent of the backoff suspension Do itself performs between
// attempts.
type Op func(ctx context.Context) error

// Notify is called after each failed attempt, before the backoff sleep, so
// callers (e.g. the RPC client) can log or rotate an endpoint without Do
// knowing anything about their concerns. Do accepts a nil Notify.
type Notify func(err error, attempt int, delay time.Duration)

// Do runs op, retrying on error up to opts.MaxAttempts total attempts, on
// the delay schedule documented on scheduleBackOff. It returns nil on the first
// successful attempt, or the last error after exhausting all attempts. If
// ctx is cancelled while Do is suspended between attempts, it unwinds
// immediately with ctx.Err() rather than retrying further.
func Do(ctx context.Context, opts Options, op Op, notify Notify) error {
	b := backoff.WithContext(&scheduleBackOff{opts: opts}, ctx)

	attempt := 0
	var lastErr error
	err := backoff.RetryNotify(
		func() error {
			attempt++
			lastErr = op(ctx)
			return lastErr
		},
		backoff.WithMaxRetries(b, uint64(opts.MaxAttempts-1)),
		func(err error, delay time.Duration) {
			if notify != nil {
				notify(err, attempt, delay)
			}
		},
	)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return lastErr
	}
	return nil
}

// scheduleBackOff implements backoff.BackOff directly from Options, so the
// delay math matches the spec exactly: D·2^(k-1), optionally scaled by a
// uniform sample in [1.0, 1.5).
type scheduleBackOff struct {
	opts    Options
	attempt int
}

func (s *scheduleBackOff) Reset() { s.attempt = 0 }

func (s *scheduleBackOff) NextBackOff() time.Duration {
	s.attempt++
	delay := s.opts.BaseDelay
	if s.opts.Exponential {
		delay = s.opts.BaseDelay * time.Duration(uint64(1)<<uint(s.attempt-1))
	}
	if s.opts.Jitter {
		delay = time.Duration(float64(delay) * jitterFactor())
	}
	return delay
}

// jitterFactor returns a uniform sample in [1.0, 1.5), matching the
// source's random.uniform(1.0, 1.5) jitter multiplier.
func jitterFactor() float64 {
	return 1.0 + rand.Float64()*0.5
}
