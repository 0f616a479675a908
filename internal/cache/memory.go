package cache

import (
	"context"
	"time"
)

// MemoryResultCache is the in-process ResultCache backed by a Store. The
// store's TTL applies to every entry, so the ttl passed to Set only decides
// whether the value is cached at all.
type MemoryResultCache struct {
	store *Store[[]byte]
}

// NewMemoryResultCache creates the store and starts its cleanup loop.
// If cleanupInterval is not positive, 5 minutes is used.
func NewMemoryResultCache(opts Options, cleanupInterval time.Duration) *MemoryResultCache {
	if opts.Name == "" {
		opts.Name = "result"
	}
	c := &MemoryResultCache{store: New[[]byte](opts)}
	c.store.StartCleanup(cleanupInterval)
	return c
}

// Get retrieves value from cache.
func (c *MemoryResultCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

// Set copies value into the store. A non-positive ttl removes the key instead.
func (c *MemoryResultCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		c.store.Delete(key)
		return nil
	}

	// Copy to decouple from caller's buffer
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	c.store.Set(key, valueCopy)
	return nil
}

// Close stops the cleanup goroutine. Call this on shutdown or in tests.
func (c *MemoryResultCache) Close() error {
	return c.store.Close()
}

// Len returns the number of items currently in the cache.
func (c *MemoryResultCache) Len() int {
	return c.store.Len()
}

// Clear removes all items from cache.
func (c *MemoryResultCache) Clear() {
	c.store.Clear()
}

// Stats exposes the underlying store counters.
func (c *MemoryResultCache) Stats() Stats {
	return c.store.Stats()
}
