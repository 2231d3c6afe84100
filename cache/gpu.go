package cache

import (
	"sync"

	"github.com/apotenza92/butterpaper/gputex"
	"github.com/apotenza92/butterpaper/tile"
)

// GPUCache is the GPU-resident tier holding uploaded tile textures.
//
// GPU memory is scarce and not garbage collected, so every path that
// drops an entry (eviction, replacement, Remove, Clear) releases the
// texture's driver resources synchronously before returning.
//
// Entries can be pinned while a draw call consumes them; pinned entries
// are skipped by eviction so a texture is never released mid-draw.
//
// GPUCache is safe for concurrent use.
type GPUCache struct {
	mu   sync.Mutex
	lru  *byteLRU[tile.ID, *gputex.Texture]
	pins map[tile.ID]int
}

// NewGPU creates a GPU tier with the given budget in megabytes.
// Non-positive values select DefaultGPULimitMB.
func NewGPU(limitMB int) *GPUCache {
	c := &GPUCache{pins: make(map[tile.ID]int)}
	c.lru = newByteLRU[tile.ID, *gputex.Texture](mbToBytes(limitMB, DefaultGPULimitMB), func(id tile.ID, tex *gputex.Texture) {
		tex.Release()
		slogger().Debug("gpu texture released", "tile", id.String(), "bytes", tex.SizeBytes())
	})
	return c
}

func (c *GPUCache) pinned(id tile.ID) bool {
	return c.pins[id] > 0
}

// Contains reports whether a texture is resident, without touching LRU order.
func (c *GPUCache) Contains(id tile.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.contains(id)
}

// Get returns the cached texture for a tile, bumping its access stamp.
func (c *GPUCache) Get(id tile.ID) (*gputex.Texture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.get(id)
}

// Insert stores a texture, releasing any texture it replaces, then evicts
// unpinned least-recently-used entries down to the budget.
func (c *GPUCache) Insert(id tile.ID, tex *gputex.Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.insert(id, tex, tex.SizeBytes())
	c.lru.evictToBudget(c.pinned)
}

// Pin protects a tile's texture from eviction while it is being consumed,
// for example during upload into a draw call. Pins nest; each Pin needs a
// matching Unpin. Pinning a non-resident tile is allowed and protects the
// entry if it appears later.
func (c *GPUCache) Pin(id tile.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pins[id]++
}

// Unpin removes one pin from a tile.
func (c *GPUCache) Unpin(id tile.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := c.pins[id]; n > 1 {
		c.pins[id] = n - 1
	} else {
		delete(c.pins, id)
	}
}

// Remove drops a tile and releases its texture. Returns false if it was
// not resident.
func (c *GPUCache) Remove(id tile.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.remove(id)
}

// EvictToBudget trims the tier down to the given byte limit, skipping
// pinned entries. Released textures are torn down before this returns.
func (c *GPUCache) EvictToBudget(limitBytes uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	saved := c.lru.limit
	c.lru.limit = limitBytes
	evicted := c.lru.evictToBudget(c.pinned)
	c.lru.limit = saved
	if evicted > 0 {
		slogger().Debug("gpu tier trimmed", "evicted", evicted, "resident", c.lru.resident)
	}
	return evicted
}

// Len returns the number of resident textures.
func (c *GPUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lru.entries)
}

// ResidentBytes returns the tier's current byte usage.
func (c *GPUCache) ResidentBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.resident
}

// LimitBytes returns the configured budget.
func (c *GPUCache) LimitBytes() uint64 {
	return c.lru.limit
}

// Clear drops every entry, releasing all textures.
func (c *GPUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.clear()
}

// Stats returns a snapshot of the tier counters.
func (c *GPUCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.stats()
}
