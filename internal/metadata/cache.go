package metadata

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache provides in-memory caching with TTL for catalog lookups.
type Cache[K comparable, V any] struct {
	mu       sync.RWMutex
	items    map[K]cacheItem[V]
	ttl      time.Duration
	maxItems int
	clock    clockwork.Clock
	stop     chan struct{}
	stopOnce sync.Once
}

type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

// CacheConfig holds cache configuration.
type CacheConfig struct {
	TTL      time.Duration
	MaxItems int
	Clock    clockwork.Clock
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:      15 * time.Minute,
		MaxItems: 1000,
	}
}

// NewCache creates a new cache and starts its expiry sweeper.
// Call Close to stop the sweeper.
func NewCache[K comparable, V any](cfg CacheConfig) *Cache[K, V] {
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 1000
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	c := &Cache[K, V]{
		items:    make(map[K]cacheItem[V]),
		ttl:      cfg.TTL,
		maxItems: cfg.MaxItems,
		clock:    cfg.Clock,
		stop:     make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves an unexpired item from the cache.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || c.clock.Now().After(item.expiresAt) {
		var zero V
		return zero, false
	}
	return item.value, true
}

// Set stores an item in the cache.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = cacheItem[V]{
		value:     value,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

// Delete removes an item from the cache.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all items from the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]cacheItem[V])
}

// Len returns the number of items in the cache, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the background sweeper.
func (c *Cache[K, V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// evictOldest drops expired items, then the earliest-expiring tenth if the
// cache is still full. Must be called with the lock held.
func (c *Cache[K, V]) evictOldest() {
	c.removeExpired()
	if len(c.items) < c.maxItems {
		return
	}

	toRemove := c.maxItems / 10
	if toRemove < 1 {
		toRemove = 1
	}

	for ; toRemove > 0 && len(c.items) > 0; toRemove-- {
		var oldestKey K
		var oldest time.Time
		first := true
		for k, item := range c.items {
			if first || item.expiresAt.Before(oldest) {
				oldestKey, oldest, first = k, item.expiresAt, false
			}
		}
		delete(c.items, oldestKey)
	}
}

func (c *Cache[K, V]) removeExpired() {
	now := c.clock.Now()
	for k, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, k)
		}
	}
}

func (c *Cache[K, V]) cleanup() {
	ticker := c.clock.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.Chan():
			c.mu.Lock()
			c.removeExpired()
			c.mu.Unlock()
		}
	}
}
