package dictionary

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/scribeclean/internal/resilience"
)

// ErrUnavailable is returned by writes to a [ResilientStore] whose backend
// circuit is open.
var ErrUnavailable = errors.New("dictionary: store unavailable")

var _ Store = (*ResilientStore)(nil)

// ResilientStore guards a remote [Store] with a circuit breaker. List falls
// back to the result of the last successful List while the backend is
// failing, so transcripts keep being corrected against a slightly stale
// vocabulary. Writes are never buffered: they fail fast with
// [ErrUnavailable] while the circuit is open.
type ResilientStore struct {
	backend  Store
	snapshot *MemStore
	group    *resilience.FallbackGroup[Store]
}

// NewResilientStore wraps backend. name labels the breaker in logs. cfg's
// IsFailure is replaced so that invalid-word and not-found answers never
// trip the breaker.
func NewResilientStore(backend Store, name string, cfg resilience.CircuitBreakerConfig) *ResilientStore {
	cfg.IsFailure = isBackendFailure
	snapshot := &MemStore{}
	group := resilience.NewFallbackGroup[Store](backend, name, cfg)
	group.AddFallback(name+"-snapshot", snapshot)
	return &ResilientStore{backend: backend, snapshot: snapshot, group: group}
}

func isBackendFailure(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrInvalidWord) &&
		!errors.Is(err, context.Canceled)
}

// Backend returns the wrapped store.
func (s *ResilientStore) Backend() Store { return s.backend }

// State returns the backend circuit state.
func (s *ResilientStore) State() resilience.State { return s.group.PrimaryState() }

// List implements [Store.List].
func (s *ResilientStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words, err := resilience.ExecuteWithResult(s.group, func(st Store) ([]string, error) {
		words, err := st.List(ctx)
		if err == nil && st == s.backend {
			s.snapshot.set(words)
		}
		return words, err
	})
	if err != nil {
		return nil, fmt.Errorf("dictionary: list: %w", err)
	}
	return words, nil
}

// Add implements [Store.Add].
func (s *ResilientStore) Add(ctx context.Context, word string) error {
	return s.write(func(st Store) error { return st.Add(ctx, word) })
}

// Remove implements [Store.Remove].
func (s *ResilientStore) Remove(ctx context.Context, word string) error {
	return s.write(func(st Store) error { return st.Remove(ctx, word) })
}

// Replace implements [Store.Replace].
func (s *ResilientStore) Replace(ctx context.Context, words []string) error {
	return s.write(func(st Store) error { return st.Replace(ctx, words) })
}

func (s *ResilientStore) write(fn func(Store) error) error {
	err := s.group.ExecutePrimary(fn)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// Ping checks the backend directly, bypassing the breaker, so readiness
// reflects the backend's real state.
func (s *ResilientStore) Ping(ctx context.Context) error {
	return Ping(ctx, s.backend)
}

// Close releases the backend.
func (s *ResilientStore) Close() error {
	if c := Closer(s.backend); c != nil {
		return c()
	}
	return nil
}

// Closer returns a function releasing s, or nil when s holds no resources.
func Closer(s Store) func() error {
	switch c := s.(type) {
	case interface{ Close() error }:
		return c.Close
	case interface{ Close() }:
		return func() error { c.Close(); return nil }
	}
	return nil
}
