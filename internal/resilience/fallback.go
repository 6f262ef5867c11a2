package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every member of a [FallbackGroup] either
// failed or was skipped because its breaker was open.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig is the breaker template applied to each member of a
// [FallbackGroup]. The Name field is overwritten per member.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// member pairs a provider value with its dedicated circuit breaker.
type member[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup wraps a primary and zero or more fallback instances of the
// same provider type. When the primary fails, or its circuit breaker is open,
// the next healthy member is tried in registration order.
//
// Members are registered before first use; after that the group is safe for
// concurrent use.
type FallbackGroup[T any] struct {
	cfg     FallbackConfig
	members []member[T]
}

// NewFallbackGroup creates a [FallbackGroup] with primary as the first
// member. Further members are registered via [FallbackGroup.AddFallback].
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends a member with its own breaker, built from the group's
// [FallbackConfig]. Members are tried in the order they are added, after the
// primary.
func (fg *FallbackGroup[T]) AddFallback(name string, value T) {
	bc := fg.cfg.CircuitBreaker
	bc.Name = name
	fg.members = append(fg.members, member[T]{name: name, value: value, breaker: NewCircuitBreaker(bc)})
}

// Names lists member names in the order they are tried.
func (fg *FallbackGroup[T]) Names() []string {
	out := make([]string, len(fg.members))
	for i, m := range fg.members {
		out[i] = m.name
	}
	return out
}

// BreakerState reports the breaker state of the named member. The second
// result is false when no member has that name.
func (fg *FallbackGroup[T]) BreakerState(name string) (State, bool) {
	for _, m := range fg.members {
		if m.name == name {
			return m.breaker.State(), true
		}
	}
	return StateClosed, false
}

// Execute runs fn against each member in order until one succeeds.
// Members with an open breaker are skipped. Returns [ErrAllFailed] wrapping
// the last error if every member fails.
func (fg *FallbackGroup[T]) Execute(ctx context.Context, fn func(T) error) error {
	_, err := ExecuteWithResult(ctx, fg, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// ExecuteWithResult is [FallbackGroup.Execute] for calls that produce a value.
// It is a package-level function because Go methods cannot declare their own
// type parameters.
//
// It stops early once ctx is done, returning the context error instead of
// charging the remaining members with a failure they did not cause.
func ExecuteWithResult[T, R any](ctx context.Context, fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var (
		zero    R
		lastErr error
	)
	for i := range fg.members {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		m := &fg.members[i]
		var out R
		err := m.breaker.Execute(func() error {
			var callErr error
			out, callErr = fn(m.value)
			return callErr
		})
		if err == nil {
			return out, nil
		}
		// Keep the most recent error for the ErrAllFailed wrap.
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("provider skipped, circuit open", "provider", m.name)
			continue
		}
		slog.Warn("provider failed", "provider", m.name, "err", err)
	}
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}
