package dictionary

import (
	"context"
	"slices"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// The zero value is ready to use.
type MemStore struct {
	mu    sync.RWMutex
	words []string
}

// NewMemStore returns a [MemStore] seeded with words. Blank words are skipped.
func NewMemStore(words ...string) *MemStore {
	s := &MemStore{}
	for _, w := range words {
		if n, err := Normalize(w); err == nil {
			s.words = append(s.words, n)
		}
	}
	return s
}

// List implements [Store.List].
func (s *MemStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.words), nil
}

// Add implements [Store.Add].
func (s *MemStore) Add(ctx context.Context, word string) error {
	w, err := Normalize(word)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = append(s.words, w)
	return nil
}

// Remove implements [Store.Remove].
func (s *MemStore) Remove(ctx context.Context, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.words)
	s.words = slices.DeleteFunc(s.words, func(w string) bool { return w == word })
	if len(s.words) == n {
		return ErrNotFound
	}
	return nil
}

// Replace implements [Store.Replace].
func (s *MemStore) Replace(ctx context.Context, words []string) error {
	normalized, err := NormalizeAll(words)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = normalized
	return nil
}

// set replaces the list with words, already normalised, without validation.
func (s *MemStore) set(words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = slices.Clone(words)
}
