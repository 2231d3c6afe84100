package cache

import (
	"sync"

	"github.com/apotenza92/butterpaper/tile"
)

// Preview cache budget bounds: 10% of the total cache budget, clamped.
const (
	// MinPreviewBudgetBytes is the preview budget floor (32 MiB).
	MinPreviewBudgetBytes = 32 * 1024 * 1024

	// MaxPreviewBudgetBytes is the preview budget ceiling (192 MiB).
	MaxPreviewBudgetBytes = 192 * 1024 * 1024
)

// PreviewBudgetBytes derives the preview cache budget from the total
// cache budget: one tenth, clamped to [32 MiB, 192 MiB].
func PreviewBudgetBytes(totalBudget uint64) uint64 {
	b := totalBudget / 10
	if b < MinPreviewBudgetBytes {
		return MinPreviewBudgetBytes
	}
	if b > MaxPreviewBudgetBytes {
		return MaxPreviewBudgetBytes
	}
	return b
}

// PageKey addresses a whole-page preview: one ultra-low-fidelity image
// per (document, page), namespaced by the document fingerprint so stale
// entries from other documents never shadow the active one.
type PageKey struct {
	Fingerprint string
	Page        int
}

// PreviewCache is the small shared cache of whole-page fallback images
// shown while real tiles are loading. It uses the same logical-counter
// LRU as the tile tiers, with its own derived budget.
//
// PreviewCache is safe for concurrent use.
type PreviewCache struct {
	mu  sync.Mutex
	lru *byteLRU[PageKey, *tile.Rendered]
}

// NewPreview creates a preview cache whose budget is derived from the
// given total cache budget via PreviewBudgetBytes.
func NewPreview(totalBudget uint64) *PreviewCache {
	return &PreviewCache{
		lru: newByteLRU[PageKey, *tile.Rendered](PreviewBudgetBytes(totalBudget), nil),
	}
}

// Get returns the cached page preview, bumping its access stamp.
func (c *PreviewCache) Get(fingerprint string, page int) (*tile.Rendered, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.get(PageKey{Fingerprint: fingerprint, Page: page})
}

// Contains reports presence without touching LRU order.
func (c *PreviewCache) Contains(fingerprint string, page int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.contains(PageKey{Fingerprint: fingerprint, Page: page})
}

// Insert stores a page preview and evicts down to the budget.
func (c *PreviewCache) Insert(fingerprint string, page int, r *tile.Rendered) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.insert(PageKey{Fingerprint: fingerprint, Page: page}, r, r.DecodedBytes())
	c.lru.evictToBudget(nil)
}

// TrimToBudget evicts down to the budget while protecting the pages in
// keepPages belonging to the active document. Entries from other
// documents are always evicted first; protected entries are never
// evicted, even if that leaves the cache over budget.
func (c *PreviewCache) TrimToBudget(keepPages map[int]struct{}, fingerprint string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Pass 1: only other-document entries are candidates.
	evicted := c.lru.evictToBudget(func(k PageKey) bool {
		return k.Fingerprint == fingerprint
	})

	// Pass 2: active-document entries outside the keep set.
	evicted += c.lru.evictToBudget(func(k PageKey) bool {
		if k.Fingerprint != fingerprint {
			return false
		}
		_, keep := keepPages[k.Page]
		return keep
	})

	if evicted > 0 {
		slogger().Debug("preview cache trimmed", "evicted", evicted, "resident", c.lru.resident)
	}
	return evicted
}

// Len returns the number of cached previews.
func (c *PreviewCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lru.entries)
}

// ResidentBytes returns the cache's current byte usage.
func (c *PreviewCache) ResidentBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.resident
}

// LimitBytes returns the derived budget.
func (c *PreviewCache) LimitBytes() uint64 {
	return c.lru.limit
}

// Clear drops every entry.
func (c *PreviewCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.clear()
}

// Stats returns a snapshot including hit/miss counters and the peak-bytes
// high-water mark.
func (c *PreviewCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.stats()
}
