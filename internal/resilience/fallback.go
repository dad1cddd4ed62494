package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry in a [FallbackGroup] fails or has
// an open circuit breaker.
var ErrAllFailed = errors.New("resilience: all entries failed")

type fallbackEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup wraps a primary and zero or more fallbacks of the same type,
// each behind its own [CircuitBreaker]. Reads go through [ExecuteWithResult]
// and move on to the next entry when one fails; writes go through
// [FallbackGroup.ExecutePrimary] and never fall back.
//
// Fallbacks must be registered before the group is shared between goroutines.
type FallbackGroup[T any] struct {
	entries []fallbackEntry[T]
	cfg     CircuitBreakerConfig
}

// NewFallbackGroup creates a [FallbackGroup] with primary as the first entry.
// cfg is used for every entry's breaker; its Name is replaced by the entry
// name.
func NewFallbackGroup[T any](primary T, primaryName string, cfg CircuitBreakerConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends an entry tried after the ones already registered.
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	cbCfg := fg.cfg
	cbCfg.Name = name
	fg.entries = append(fg.entries, fallbackEntry[T]{
		name:    name,
		value:   fallback,
		breaker: NewCircuitBreaker(cbCfg),
	})
}

// PrimaryState returns the state of the primary's breaker.
func (fg *FallbackGroup[T]) PrimaryState() State {
	return fg.entries[0].breaker.State()
}

// ExecutePrimary runs fn against the primary only, through its breaker.
// fn's error is returned unchanged; an open breaker yields [ErrCircuitOpen].
func (fg *FallbackGroup[T]) ExecutePrimary(fn func(T) error) error {
	entry := &fg.entries[0]
	return entry.breaker.Execute(func() error {
		return fn(entry.value)
	})
}

// Execute tries fn against each entry in order until one succeeds.
func (fg *FallbackGroup[T]) Execute(fn func(T) error) error {
	_, err := ExecuteWithResult(fg, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// ExecuteWithResult tries fn against each entry in order until one succeeds
// and returns its result. Entries with an open breaker are skipped. When
// every entry fails the error wraps [ErrAllFailed] and the last failure.
func ExecuteWithResult[T any, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range fg.entries {
		entry := &fg.entries[i]
		var result R
		err := entry.breaker.Execute(func() error {
			var innerErr error
			result, innerErr = fn(entry.value)
			return innerErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("skipping entry with open circuit", "entry", entry.name)
		} else {
			slog.Warn("entry failed, trying next", "entry", entry.name, "err", err)
		}
	}
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}
