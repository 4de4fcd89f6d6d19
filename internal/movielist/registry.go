package movielist

import (
	"sync"

	"github.com/popcorn/popcorn/internal/catalog"
)

// Registry hands out one Manager per category, creating each on first use.
type Registry struct {
	fetcher Fetcher
	opts    Options

	mu       sync.Mutex
	managers map[catalog.Category]*Manager
}

// NewRegistry creates an empty registry. Every manager it creates shares
// fetcher and opts.
func NewRegistry(fetcher Fetcher, opts Options) *Registry {
	return &Registry{
		fetcher:  fetcher,
		opts:     opts,
		managers: make(map[catalog.Category]*Manager),
	}
}

// Get returns the manager for category, creating it if needed.
func (r *Registry) Get(category catalog.Category) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.managers[category]; ok {
		return m
	}
	m := NewManager(category, r.fetcher, r.opts)
	r.managers[category] = m
	return m
}

// Lookup returns the manager for category if one has been created.
func (r *Registry) Lookup(category catalog.Category) (*Manager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.managers[category]
	return m, ok
}

// Len returns the number of managers created so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}
