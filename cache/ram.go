package cache

import (
	"sync"

	"github.com/apotenza92/butterpaper/tile"
)

// Default tier budgets in megabytes.
const (
	// DefaultRAMLimitMB is the default RAM tier budget.
	DefaultRAMLimitMB = 512

	// DefaultGPULimitMB is the default GPU tier budget.
	DefaultGPULimitMB = 256

	// DefaultDiskLimitMB is the default disk tier budget.
	DefaultDiskLimitMB = 2048

	// MinLimitMB is the smallest accepted tier budget.
	MinLimitMB = 16
)

// mbToBytes resolves a megabyte limit with a default and floor.
func mbToBytes(mb, def int) uint64 {
	if mb <= 0 {
		mb = def
	}
	if mb < MinLimitMB {
		mb = MinLimitMB
	}
	return uint64(mb) * 1024 * 1024
}

// RAMCache is the fast in-memory tier holding decoded tile pixels.
//
// RAMCache is safe for concurrent use.
type RAMCache struct {
	mu  sync.Mutex
	lru *byteLRU[tile.ID, *tile.Rendered]
}

// NewRAM creates a RAM tier with the given budget in megabytes.
// Non-positive values select DefaultRAMLimitMB.
func NewRAM(limitMB int) *RAMCache {
	return &RAMCache{
		lru: newByteLRU[tile.ID, *tile.Rendered](mbToBytes(limitMB, DefaultRAMLimitMB), nil),
	}
}

// OnEvict installs a hook invoked for every entry leaving the tier:
// eviction, replacement, removal, Clear. The disk tier is wired here so
// evicted tiles spill to disk instead of vanishing. The hook runs with
// the tier mutex held; it must not call back into the cache, and slow
// work (actual I/O) must be queued, as DiskCache.Insert does.
func (c *RAMCache) OnEvict(fn func(tile.ID, *tile.Rendered)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.onEvict = fn
}

// Contains reports whether a tile is resident, without touching LRU order.
func (c *RAMCache) Contains(id tile.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.contains(id)
}

// Get returns the cached render for a tile, bumping its access stamp.
func (c *RAMCache) Get(id tile.ID) (*tile.Rendered, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.get(id)
}

// Insert stores a render, replacing any existing entry for the same tile,
// then evicts least-recently-used entries down to the budget.
func (c *RAMCache) Insert(id tile.ID, r *tile.Rendered) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.insert(id, r, r.DecodedBytes())
	c.lru.evictToBudget(nil)
}

// Remove drops a tile from the cache. Returns false if it was not resident.
func (c *RAMCache) Remove(id tile.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.remove(id)
}

// RemovePage drops every resident tile of one page and returns the count.
// Used when a page's content is invalidated.
func (c *RAMCache) RemovePage(page int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id := range c.lru.entries {
		if id.Page == page {
			c.lru.remove(id)
			removed++
		}
	}
	return removed
}

// EvictToBudget trims the tier down to the given byte limit (not the
// configured one). The budget monitor calls this to trim proactively
// under memory pressure.
func (c *RAMCache) EvictToBudget(limitBytes uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	saved := c.lru.limit
	c.lru.limit = limitBytes
	evicted := c.lru.evictToBudget(nil)
	c.lru.limit = saved
	if evicted > 0 {
		slogger().Debug("ram tier trimmed", "evicted", evicted, "resident", c.lru.resident)
	}
	return evicted
}

// Len returns the number of resident tiles.
func (c *RAMCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lru.entries)
}

// ResidentBytes returns the tier's current byte usage.
func (c *RAMCache) ResidentBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.resident
}

// LimitBytes returns the configured budget.
func (c *RAMCache) LimitBytes() uint64 {
	return c.lru.limit
}

// Clear drops every entry.
func (c *RAMCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.clear()
}

// Stats returns a snapshot of the tier counters.
func (c *RAMCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.stats()
}
