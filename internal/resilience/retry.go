package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryConfig holds tuning knobs for [Retry]. The zero value is usable.
type RetryConfig struct {
	// Name labels log lines.
	Name string

	// MaxAttempts includes the first call. Default: 3.
	MaxAttempts int

	// BaseDelay is the wait after the first failure; it doubles each time.
	// Default: 1s.
	BaseDelay time.Duration

	// MaxDelay caps a single wait. Default: 30s.
	MaxDelay time.Duration

	// Jitter adds up to this fraction of the delay at random. Default: 0.
	Jitter float64

	// AttemptTimeout bounds each call. Zero means no per-attempt deadline.
	AttemptTimeout time.Duration

	// IsRetryable decides whether an error warrants another attempt.
	// Default: [DefaultIsRetryable].
	IsRetryable func(error) bool

	// Sleep waits between attempts. Default: a timer that also watches ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (c *RetryConfig) defaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.IsRetryable == nil {
		c.IsRetryable = DefaultIsRetryable
	}
	if c.Sleep == nil {
		c.Sleep = sleepCtx
	}
}

// Retry calls fn until it succeeds, returns a non-retryable error, or
// MaxAttempts is reached. Each iteration:
//
//  1. Gives up with ctx.Err() if the caller's context is done.
//  2. Calls fn under a per-attempt deadline when AttemptTimeout is set.
//  3. Returns immediately on a non-retryable error. A per-attempt deadline
//     that fires while ctx is still alive counts as retryable.
//  4. Sleeps Backoff(BaseDelay, MaxDelay, Jitter, attempt) before the next
//     attempt.
//
// The final error wraps the last attempt's error.
func Retry[R any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (R, error)) (R, error) {
	cfg.defaults()
	var (
		zero    R
		lastErr error
	)
	for attempt := range cfg.MaxAttempts {
		// 1. Caller gone.
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		// 2. One attempt.
		out, err := callAttempt(ctx, cfg.AttemptTimeout, fn)
		if err == nil {
			return out, nil
		}
		lastErr = err

		// 3. Classify the failure.
		attemptTimedOut := ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded)
		if !attemptTimedOut && !cfg.IsRetryable(err) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		// 4. Back off.
		delay := Backoff(cfg.BaseDelay, cfg.MaxDelay, cfg.Jitter, attempt)
		slog.Debug("retrying", "name", cfg.Name, "attempt", attempt+1, "delay", delay, "err", err)
		if err := cfg.Sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, fmt.Errorf("%s: %d attempts failed: %w", cfg.Name, cfg.MaxAttempts, lastErr)
}

// callAttempt runs fn with its own deadline derived from ctx.
func callAttempt[R any](ctx context.Context, timeout time.Duration, fn func(context.Context) (R, error)) (R, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(actx)
}

// DefaultIsRetryable treats everything except caller cancellation and
// deadlines as transient.
func DefaultIsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Backoff returns base·2^attempt capped at max, plus up to jitter·delay.
func Backoff(base, max time.Duration, jitter float64, attempt int) time.Duration {
	d := base << attempt
	if d <= 0 || d > max {
		d = max
	}
	if jitter > 0 {
		d += time.Duration(float64(d) * jitter * rand.Float64())
	}
	return d
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
