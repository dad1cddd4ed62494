// Package dictionary stores the custom vocabulary that the transcript
// vocabulary pass corrects towards.
//
// Three backends implement [Store]: [MemStore] for single-process use and
// tests, [RedisStore] for a list shared between instances, and
// [PostgresStore] for durable storage. All keep insertion order because the
// vocabulary corrector breaks score ties in favour of the earlier word.
package dictionary

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Remove when the word is not in the store.
var ErrNotFound = errors.New("dictionary: word not found")

// ErrInvalidWord is returned when a word is blank after trimming.
var ErrInvalidWord = errors.New("dictionary: invalid word")

// Store manages the custom word list.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// List returns every word in insertion order. Duplicates are kept.
	List(ctx context.Context) ([]string, error)

	// Add appends word after normalising it with [Normalize].
	// Returns [ErrInvalidWord] for blank input.
	Add(ctx context.Context, word string) error

	// Remove deletes every occurrence of word (exact match).
	// Returns [ErrNotFound] when there is none.
	Remove(ctx context.Context, word string) error

	// Replace atomically swaps the whole list for words. Every word is
	// validated before anything is changed.
	Replace(ctx context.Context, words []string) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks that s is reachable. Stores without a remote backend are always
// reachable.
func Ping(ctx context.Context, s Store) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
