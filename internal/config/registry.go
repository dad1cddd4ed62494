package config

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/scribeclean/internal/dictionary"
)

// ErrStoreNotRegistered is returned by [Registry.CreateStore] when no factory
// has been registered under the requested store name.
var ErrStoreNotRegistered = errors.New("config: store not registered")

// StoreFactory builds a dictionary store from its configuration.
type StoreFactory func(ctx context.Context, cfg StoreConfig) (dictionary.Store, error)

// Registry maps store names to their constructor functions.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]StoreFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[string]StoreFactory),
	}
}

// RegisterStore registers a store factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterStore(name string, factory StoreFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[name] = factory
}

// CreateStore instantiates a store using the factory registered under cfg.Name.
// Returns [ErrStoreNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateStore(ctx context.Context, cfg StoreConfig) (dictionary.Store, error) {
	r.mu.RLock()
	factory, ok := r.stores[cfg.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStoreNotRegistered, cfg.Name)
	}
	return factory(ctx, cfg)
}

// StoreNames returns the registered store names, sorted.
func (r *Registry) StoreNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stores))
	for n := range r.stores {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
