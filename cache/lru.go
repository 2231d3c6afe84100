// Package cache implements the tri-tier tile cache: a RAM tier for decoded
// pixels, a GPU tier for resident textures, and a disk tier for spill-over,
// plus the shared page-preview cache and the combined memory budget monitor.
//
// All tiers share one eviction discipline: a byte budget and least-recently
// used ordering driven by a logical access counter. The counter increments
// once per read or write, so eviction order is deterministic and
// independent of system clock resolution.
package cache

// lruEntry is one cached payload with its byte charge and the logical
// access stamp driving LRU order.
type lruEntry[V any] struct {
	value V
	bytes uint64
	atime int64
}

// byteLRU is the budgeted LRU core shared by all tiers. It is not safe
// for concurrent use on its own; each tier guards its instance with a
// single mutex (operations are whole-tile reads and writes, so
// coarse-grained locking is fine).
type byteLRU[K comparable, V any] struct {
	entries  map[K]*lruEntry[V]
	limit    uint64 // 0 means unlimited
	resident uint64
	tick     int64

	// onEvict is invoked for every entry leaving the cache: eviction,
	// replacement, explicit removal, or Clear. The GPU tier uses it to
	// release driver resources synchronously.
	onEvict func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
	peak      uint64
}

func newByteLRU[K comparable, V any](limit uint64, onEvict func(K, V)) *byteLRU[K, V] {
	return &byteLRU[K, V]{
		entries: make(map[K]*lruEntry[V]),
		limit:   limit,
		onEvict: onEvict,
	}
}

// get returns the value for key, bumping its access stamp on a hit.
func (c *byteLRU[K, V]) get(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.tick++
	e.atime = c.tick
	c.hits++
	return e.value, true
}

// contains reports presence without touching LRU order.
func (c *byteLRU[K, V]) contains(key K) bool {
	_, ok := c.entries[key]
	return ok
}

// insert stores value under key, replacing any existing entry (the
// replaced value goes through onEvict). The caller follows up with
// evictToBudget so tier-specific protection applies to the sweep.
func (c *byteLRU[K, V]) insert(key K, value V, bytes uint64) {
	if old, ok := c.entries[key]; ok {
		c.resident -= old.bytes
		if c.onEvict != nil {
			c.onEvict(key, old.value)
		}
	}
	c.tick++
	c.entries[key] = &lruEntry[V]{value: value, bytes: bytes, atime: c.tick}
	c.resident += bytes
	if c.resident > c.peak {
		c.peak = c.resident
	}
}

// remove drops the entry for key, if present, invoking onEvict.
func (c *byteLRU[K, V]) remove(key K) bool {
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.resident -= e.bytes
	delete(c.entries, key)
	if c.onEvict != nil {
		c.onEvict(key, e.value)
	}
	return true
}

// evictToBudget removes least-recently-used entries until resident bytes
// fit the budget or only one entry remains. Entries for which protected
// returns true are skipped; eviction stops early when only protected
// entries are left.
func (c *byteLRU[K, V]) evictToBudget(protected func(K) bool) int {
	if c.limit == 0 {
		return 0
	}
	evicted := 0
	for c.resident > c.limit && len(c.entries) > 1 {
		key, ok := c.oldest(protected)
		if !ok {
			break
		}
		c.remove(key)
		c.evictions++
		evicted++
	}
	return evicted
}

// oldest returns the unprotected key with the smallest access stamp.
func (c *byteLRU[K, V]) oldest(protected func(K) bool) (K, bool) {
	var oldestKey K
	var oldestTime int64
	found := false
	for key, e := range c.entries {
		if protected != nil && protected(key) {
			continue
		}
		if !found || e.atime < oldestTime {
			oldestKey = key
			oldestTime = e.atime
			found = true
		}
	}
	return oldestKey, found
}

// clear drops every entry, invoking onEvict for each.
func (c *byteLRU[K, V]) clear() {
	if c.onEvict != nil {
		for key, e := range c.entries {
			c.onEvict(key, e.value)
		}
	}
	c.entries = make(map[K]*lruEntry[V])
	c.resident = 0
}

func (c *byteLRU[K, V]) stats() Stats {
	return Stats{
		Entries:       len(c.entries),
		ResidentBytes: c.resident,
		LimitBytes:    c.limit,
		Hits:          c.hits,
		Misses:        c.misses,
		Evictions:     c.evictions,
		PeakBytes:     c.peak,
	}
}
