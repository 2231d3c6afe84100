package cache

import (
	"context"
	"sync"

	"github.com/apotenza92/butterpaper/blob"
	"github.com/apotenza92/butterpaper/tile"
)

// DefaultWriteQueueLen is the buffer size of the disk tier's write queue.
const DefaultWriteQueueLen = 64

// DiskCache is the spill-over tier holding encoded tiles in a blob store
// for very large documents. It is an I/O boundary, not a fast path:
// writes are queued to a dedicated writer goroutine so disk latency never
// holds the tier mutex, and store failures degrade to cache misses.
//
// The in-memory index is authoritative for presence and byte accounting;
// the store only holds payloads.
//
// DiskCache is safe for concurrent use.
type DiskCache struct {
	mu       sync.Mutex
	store    blob.Store
	prefix   string
	index    map[tile.ID]*diskEntry
	limit    uint64
	resident uint64
	tick     int64

	hits      uint64
	misses    uint64
	evictions uint64
	peak      uint64
	closed    bool

	writes chan diskOp
	wg     sync.WaitGroup
}

type diskEntry struct {
	bytes uint64
	atime int64
}

type diskOp struct {
	key    string
	data   []byte
	id     tile.ID
	delete bool
}

// DiskConfig holds parameters for creating a DiskCache.
type DiskConfig struct {
	// LimitMB is the tier budget in megabytes; DefaultDiskLimitMB when
	// non-positive.
	LimitMB int

	// Namespace prefixes blob keys, typically the document fingerprint,
	// so one store can serve several documents.
	Namespace string

	// WriteQueueLen bounds the async write queue; DefaultWriteQueueLen
	// when non-positive. A full queue drops the write (and the index
	// entry) rather than blocking the caller.
	WriteQueueLen int
}

// NewDisk creates a disk tier over the given store and starts its writer
// goroutine. Call Close to drain and stop it.
func NewDisk(store blob.Store, cfg DiskConfig) *DiskCache {
	queueLen := cfg.WriteQueueLen
	if queueLen <= 0 {
		queueLen = DefaultWriteQueueLen
	}
	prefix := cfg.Namespace
	if prefix != "" {
		prefix += "/"
	}

	c := &DiskCache{
		store:  store,
		prefix: prefix,
		index:  make(map[tile.ID]*diskEntry),
		limit:  mbToBytes(cfg.LimitMB, DefaultDiskLimitMB),
		writes: make(chan diskOp, queueLen),
	}
	c.wg.Add(1)
	go c.writer()
	return c
}

func (c *DiskCache) key(id tile.ID) string {
	return c.prefix + id.String()
}

// writer applies queued store operations one at a time, off the render
// path. A failed put invalidates the index entry so readers fall through
// to a re-render instead of trusting a blob that never landed.
func (c *DiskCache) writer() {
	defer c.wg.Done()
	ctx := context.Background()

	for op := range c.writes {
		if op.delete {
			if err := c.store.Delete(ctx, op.key); err != nil {
				slogger().Warn("disk tier delete failed", "key", op.key, "err", err)
			}
			continue
		}
		if err := c.store.Put(ctx, op.key, op.data); err != nil {
			slogger().Warn("disk tier write failed", "key", op.key, "err", err)
			c.drop(op.id)
		}
	}
}

// drop removes an index entry without issuing a store delete.
func (c *DiskCache) drop(id tile.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.index[id]; ok {
		c.resident -= e.bytes
		delete(c.index, id)
	}
}

// Contains reports whether a tile is indexed, without touching LRU order.
func (c *DiskCache) Contains(id tile.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[id]
	return ok
}

// Get returns the stored bytes for a tile. Any store failure, missing
// blob or read error alike, is treated as a miss: the entry is dropped
// and the caller re-renders.
func (c *DiskCache) Get(ctx context.Context, id tile.ID) ([]byte, bool) {
	c.mu.Lock()
	e, ok := c.index[id]
	if !ok {
		c.misses++
		c.mu.Unlock()
		return nil, false
	}
	c.tick++
	e.atime = c.tick
	c.hits++
	key := c.key(id)
	c.mu.Unlock()

	// Store I/O happens outside the mutex so a slow disk never blocks
	// concurrent index operations.
	data, err := c.store.Get(ctx, key)
	if err != nil {
		slogger().Warn("disk tier read failed, treating as miss", "key", key, "err", err)
		c.drop(id)
		return nil, false
	}
	return data, true
}

// Insert indexes a tile and queues its bytes for writing. If the write
// queue is full the insert is dropped with a warning; blocking the
// caller on disk latency is never acceptable.
func (c *DiskCache) Insert(id tile.ID, data []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if old, ok := c.index[id]; ok {
		c.resident -= old.bytes
	}
	c.tick++
	c.index[id] = &diskEntry{bytes: uint64(len(data)), atime: c.tick}
	c.resident += uint64(len(data))
	if c.resident > c.peak {
		c.peak = c.resident
	}

	deletes := c.evictLocked()
	key := c.key(id)
	c.mu.Unlock()

	for _, del := range deletes {
		c.enqueue(del)
	}
	if !c.enqueue(diskOp{key: key, data: data, id: id}) {
		slogger().Warn("disk tier write queue full, dropping tile", "key", key)
		c.drop(id)
	}
}

// enqueue attempts a non-blocking send to the writer.
func (c *DiskCache) enqueue(op diskOp) bool {
	select {
	case c.writes <- op:
		return true
	default:
		return false
	}
}

// evictLocked removes least-recently-used index entries until resident
// bytes fit the budget or one entry remains, and returns the store
// deletes to queue. Caller must hold c.mu.
func (c *DiskCache) evictLocked() []diskOp {
	var deletes []diskOp
	for c.resident > c.limit && len(c.index) > 1 {
		var oldestID tile.ID
		var oldestTime int64
		found := false
		for id, e := range c.index {
			if !found || e.atime < oldestTime {
				oldestID = id
				oldestTime = e.atime
				found = true
			}
		}
		if !found {
			break
		}
		c.resident -= c.index[oldestID].bytes
		delete(c.index, oldestID)
		c.evictions++
		deletes = append(deletes, diskOp{key: c.key(oldestID), delete: true})
	}
	return deletes
}

// Remove drops a tile from the index and queues a store delete.
func (c *DiskCache) Remove(id tile.ID) bool {
	c.mu.Lock()
	e, ok := c.index[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.resident -= e.bytes
	delete(c.index, id)
	key := c.key(id)
	closed := c.closed
	c.mu.Unlock()

	if !closed {
		c.enqueue(diskOp{key: key, delete: true})
	}
	return true
}

// Len returns the number of indexed tiles.
func (c *DiskCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// ResidentBytes returns the tier's current byte usage.
func (c *DiskCache) ResidentBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resident
}

// LimitBytes returns the configured budget.
func (c *DiskCache) LimitBytes() uint64 {
	return c.limit
}

// Stats returns a snapshot of the tier counters.
func (c *DiskCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:       len(c.index),
		ResidentBytes: c.resident,
		LimitBytes:    c.limit,
		Hits:          c.hits,
		Misses:        c.misses,
		Evictions:     c.evictions,
		PeakBytes:     c.peak,
	}
}

// Close stops accepting inserts, drains the write queue and waits for the
// writer goroutine. The blob store itself is not closed; the caller owns it.
func (c *DiskCache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.writes)
	c.wg.Wait()
}
