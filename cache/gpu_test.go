package cache

import (
	"testing"

	"github.com/apotenza92/butterpaper/gputex"
)

func newGPUBytes(t *testing.T, limit uint64) (*GPUCache, *gputex.NullAllocator) {
	t.Helper()
	c := NewGPU(MinLimitMB)
	c.lru.limit = limit
	return c, gputex.NewNullAllocator()
}

func newTexture(t *testing.T, alloc gputex.Allocator, size int) *gputex.Texture {
	t.Helper()
	// Square RGBA8 texture charged at size bytes: side*side*4 == size.
	side := 1
	for side*side*4 < size {
		side++
	}
	tex, err := gputex.Create(alloc, gputex.Config{
		Width:  side,
		Height: side,
		Format: gputex.FormatRGBA8,
	}, make([]byte, side*side*4))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return tex
}

func TestGPUInsertGet(t *testing.T) {
	c, alloc := newGPUBytes(t, 1<<20)
	id := tid(0, 0, 0)
	tex := newTexture(t, alloc, 1024)

	c.Insert(id, tex)

	got, ok := c.Get(id)
	if !ok || got != tex {
		t.Error("Get should return the inserted texture")
	}
	if c.ResidentBytes() != tex.SizeBytes() {
		t.Errorf("ResidentBytes = %d, want %d", c.ResidentBytes(), tex.SizeBytes())
	}
}

func TestGPUEvictionReleasesSynchronously(t *testing.T) {
	c, alloc := newGPUBytes(t, 2048)

	a := newTexture(t, alloc, 1024)
	b := newTexture(t, alloc, 1024)
	cc := newTexture(t, alloc, 1024)

	c.Insert(tid(0, 0, 0), a)
	c.Insert(tid(0, 1, 0), b)
	c.Insert(tid(0, 2, 0), cc)

	// The first texture must be torn down before Insert returns.
	if !a.Released() {
		t.Error("evicted texture should be released synchronously")
	}
	if alloc.Destroyed() != 1 {
		t.Errorf("Destroyed = %d, want 1", alloc.Destroyed())
	}
	if b.Released() || cc.Released() {
		t.Error("resident textures must not be released")
	}
}

func TestGPUReplacementReleasesOldTexture(t *testing.T) {
	c, alloc := newGPUBytes(t, 1<<20)
	id := tid(0, 0, 0)

	old := newTexture(t, alloc, 1024)
	c.Insert(id, old)
	c.Insert(id, newTexture(t, alloc, 1024))

	if !old.Released() {
		t.Error("replaced texture should be released")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestGPURemoveAndClearRelease(t *testing.T) {
	c, alloc := newGPUBytes(t, 1<<20)

	a := newTexture(t, alloc, 1024)
	b := newTexture(t, alloc, 1024)
	c.Insert(tid(0, 0, 0), a)
	c.Insert(tid(0, 1, 0), b)

	if !c.Remove(tid(0, 0, 0)) {
		t.Fatal("Remove should report the entry resident")
	}
	if !a.Released() {
		t.Error("removed texture should be released")
	}

	c.Clear()
	if !b.Released() {
		t.Error("Clear should release remaining textures")
	}
	if alloc.Destroyed() != 2 {
		t.Errorf("Destroyed = %d, want 2", alloc.Destroyed())
	}
}

func TestGPUPinnedEntriesSurviveEviction(t *testing.T) {
	c, alloc := newGPUBytes(t, 2048)

	a := newTexture(t, alloc, 1024)
	pinID := tid(0, 0, 0)
	c.Insert(pinID, a)
	c.Pin(pinID)

	c.Insert(tid(0, 1, 0), newTexture(t, alloc, 1024))
	// Over budget; the oldest entry is pinned, so the next oldest goes.
	c.Insert(tid(0, 2, 0), newTexture(t, alloc, 1024))

	if !c.Contains(pinID) {
		t.Error("pinned texture should survive eviction")
	}
	if a.Released() {
		t.Error("pinned texture must not be released")
	}
	if c.Contains(tid(0, 1, 0)) {
		t.Error("unpinned LRU entry should be evicted instead")
	}

	// After Unpin the entry is fair game again.
	c.Unpin(pinID)
	c.EvictToBudget(1024)
	if c.Contains(pinID) {
		t.Error("unpinned texture should be evictable")
	}
}

func TestGPUPinNesting(t *testing.T) {
	c, alloc := newGPUBytes(t, 1024)
	id := tid(0, 0, 0)
	c.Insert(id, newTexture(t, alloc, 1024))

	c.Pin(id)
	c.Pin(id)
	c.Unpin(id)

	// Still pinned once; force an eviction pass.
	c.Insert(tid(0, 1, 0), newTexture(t, alloc, 1024))
	if !c.Contains(id) {
		t.Error("nested pin should still protect the entry")
	}

	c.Unpin(id)
	c.EvictToBudget(1)
	if c.Len() > 1 {
		t.Errorf("Len = %d after full trim", c.Len())
	}
}

func TestGPUEvictToBudgetSkipsPinned(t *testing.T) {
	c, alloc := newGPUBytes(t, 1<<20)
	for i := 0; i < 4; i++ {
		c.Insert(tid(0, i, 0), newTexture(t, alloc, 1024))
	}
	c.Pin(tid(0, 0, 0))
	c.Pin(tid(0, 1, 0))

	c.EvictToBudget(1)

	if !c.Contains(tid(0, 0, 0)) || !c.Contains(tid(0, 1, 0)) {
		t.Error("pinned entries should survive a forced trim")
	}
	// Both unpinned entries can go: the pinned ones keep the entry
	// count above one, so the last-entry guard never triggers.
	if c.Contains(tid(0, 2, 0)) || c.Contains(tid(0, 3, 0)) {
		t.Error("unpinned entries should be trimmed")
	}
}
