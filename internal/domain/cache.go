package domain

import "sync"

// MemoryCache is an unbounded, concurrency-safe EstimateCache. Entries are never
// evicted; the key space is bounded by distinct two-decimal coordinates.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]ClimateEstimate
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]ClimateEstimate)}
}

func (c *MemoryCache) Get(key string) (ClimateEstimate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	est, ok := c.entries[key]
	return est, ok
}

// Put stores the estimate. Racing writers for the same key store identical values,
// so the first write is kept.
func (c *MemoryCache) Put(key string, estimate ClimateEstimate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	c.entries[key] = estimate
}

// Len returns the number of cached estimates.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
