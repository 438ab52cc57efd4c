package core

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the configured provider sites. It is safe for concurrent
// use; the serve loop mutates it on config reload while request handlers
// read from it.
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider under its key, replacing and closing any
// previously registered provider with the same key.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.providers[p.Key()]; exists {
		if err := existing.Close(); err != nil {
			return fmt.Errorf("closing existing provider %s: %w", p.Key(), err)
		}
	}

	r.providers[p.Key()] = p
	return nil
}

func (r *Registry) Get(key string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[key]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", key)
	}

	return provider, nil
}

// Available returns the providers eligible for a search, sorted by key so
// merged results have a stable order. Adult sites are excluded unless
// includeAdult is true.
func (r *Registry) Available(includeAdult bool) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	selected := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.Adult() && !includeAdult {
			continue
		}
		selected = append(selected, p)
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Key() < selected[j].Key()
	})
	return selected
}

// ListKeys returns all registered provider keys, sorted.
func (r *Registry) ListKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.providers))
	for key := range r.providers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) Remove(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	provider, exists := r.providers[key]
	if !exists {
		return fmt.Errorf("provider %s not found", key)
	}

	if err := provider.Close(); err != nil {
		return fmt.Errorf("closing provider %s: %w", key, err)
	}

	delete(r.providers, key)
	return nil
}

// Close closes every registered provider and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for key, provider := range r.providers {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing provider %s: %w", key, err))
		}
	}

	r.providers = make(map[string]Provider)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing providers: %v", errs)
	}

	return nil
}
