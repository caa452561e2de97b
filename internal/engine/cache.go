package engine

import (
	"sync"
	"time"
)

// Cache is an optional, injectable cache for expensive collaborator
// reads (rule snapshots, product attributes). The engine itself never
// requires one — recomputing is always correct — so implementations may
// drop entries at any time.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Invalidate(key string)
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// MemoryCache is a TTL map cache safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewMemoryCache creates a MemoryCache; a non-positive ttl means entries
// never expire until invalidated.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.Invalidate(key)
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) Set(key string, value interface{}) {
	entry := cacheEntry{value: value}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

func (c *MemoryCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
