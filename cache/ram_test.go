package cache

import (
	"image"
	"sync"
	"testing"

	"github.com/apotenza92/butterpaper/tile"
)

// newRAMBytes builds a RAM tier with an exact byte budget for tests.
func newRAMBytes(limit uint64) *RAMCache {
	c := NewRAM(MinLimitMB)
	c.lru.limit = limit
	return c
}

// renderedOfSize fabricates a render whose decoded size is exactly n bytes.
func renderedOfSize(id tile.ID, n int) *tile.Rendered {
	return &tile.Rendered{
		ID:     id,
		Pixels: image.NewRGBA(image.Rect(0, 0, n/4, 1)),
	}
}

func tid(page, col, row int) tile.ID {
	return tile.ID{Page: page, Col: col, Row: row, Profile: tile.ProfileCrisp}
}

func TestRAMInsertGet(t *testing.T) {
	c := newRAMBytes(1 << 20)
	id := tid(0, 0, 0)

	if _, ok := c.Get(id); ok {
		t.Error("empty cache should miss")
	}

	r := renderedOfSize(id, 1024)
	c.Insert(id, r)

	if !c.Contains(id) {
		t.Error("inserted tile should be resident")
	}
	got, ok := c.Get(id)
	if !ok || got != r {
		t.Error("Get should return the inserted render")
	}
	if c.ResidentBytes() != 1024 {
		t.Errorf("ResidentBytes = %d, want 1024", c.ResidentBytes())
	}
}

func TestRAMReplaceAdjustsBytes(t *testing.T) {
	c := newRAMBytes(1 << 20)
	id := tid(0, 0, 0)

	c.Insert(id, renderedOfSize(id, 4096))
	c.Insert(id, renderedOfSize(id, 1024))

	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if c.ResidentBytes() != 1024 {
		t.Errorf("ResidentBytes = %d, want 1024 after replacement", c.ResidentBytes())
	}
}

func TestRAMBudgetInvariant(t *testing.T) {
	// For any insert sequence, resident bytes stay at or under the
	// budget unless a single entry alone exceeds it.
	const budget = 10 * 1024
	c := newRAMBytes(budget)

	for i := 0; i < 100; i++ {
		c.Insert(tid(0, i, 0), renderedOfSize(tid(0, i, 0), 1024))
		if c.ResidentBytes() > budget && c.Len() > 1 {
			t.Fatalf("after insert %d: resident %d over budget %d with %d entries",
				i, c.ResidentBytes(), budget, c.Len())
		}
	}
}

func TestRAMLRUEviction(t *testing.T) {
	// Capacity for exactly two equal-sized entries: inserting A, B, C
	// evicts A, leaving {B, C}.
	c := newRAMBytes(2048)
	a, b, cc := tid(0, 0, 0), tid(0, 1, 0), tid(0, 2, 0)

	c.Insert(a, renderedOfSize(a, 1024))
	c.Insert(b, renderedOfSize(b, 1024))
	c.Insert(cc, renderedOfSize(cc, 1024))

	if c.Contains(a) {
		t.Error("A should be evicted")
	}
	if !c.Contains(b) || !c.Contains(cc) {
		t.Error("B and C should be resident")
	}
}

func TestRAMGetRefreshesLRU(t *testing.T) {
	c := newRAMBytes(2048)
	a, b, cc := tid(0, 0, 0), tid(0, 1, 0), tid(0, 2, 0)

	c.Insert(a, renderedOfSize(a, 1024))
	c.Insert(b, renderedOfSize(b, 1024))

	// Touch A so B becomes the eviction victim.
	if _, ok := c.Get(a); !ok {
		t.Fatal("A should be resident")
	}
	c.Insert(cc, renderedOfSize(cc, 1024))

	if !c.Contains(a) {
		t.Error("A was touched and should survive")
	}
	if c.Contains(b) {
		t.Error("B was least recently used and should be evicted")
	}
}

func TestRAMOversizedEntryRetainedAlone(t *testing.T) {
	c := newRAMBytes(1024)
	small := tid(0, 0, 0)
	big := tid(0, 1, 0)

	c.Insert(small, renderedOfSize(small, 512))
	// An entry larger than the whole budget evicts everything else but
	// is itself retained rather than looping forever.
	c.Insert(big, renderedOfSize(big, 4096))

	if c.Contains(small) {
		t.Error("small entry should be evicted")
	}
	if !c.Contains(big) {
		t.Error("oversized entry should be retained alone")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestRAMDeterministicEvictionOrder(t *testing.T) {
	// The logical counter, not wall clock, orders eviction: repeated
	// runs of the same sequence evict the same keys.
	for run := 0; run < 3; run++ {
		c := newRAMBytes(3 * 1024)
		ids := []tile.ID{tid(0, 0, 0), tid(0, 1, 0), tid(0, 2, 0)}
		for _, id := range ids {
			c.Insert(id, renderedOfSize(id, 1024))
		}
		c.Get(ids[0])
		c.Get(ids[2])
		// ids[1] is now oldest.
		over := tid(0, 3, 0)
		c.Insert(over, renderedOfSize(over, 1024))

		if c.Contains(ids[1]) {
			t.Fatalf("run %d: expected ids[1] evicted", run)
		}
		for _, id := range []tile.ID{ids[0], ids[2], over} {
			if !c.Contains(id) {
				t.Fatalf("run %d: expected %v resident", run, id)
			}
		}
	}
}

func TestRAMRemovePage(t *testing.T) {
	c := newRAMBytes(1 << 20)
	c.Insert(tid(0, 0, 0), renderedOfSize(tid(0, 0, 0), 256))
	c.Insert(tid(0, 1, 0), renderedOfSize(tid(0, 1, 0), 256))
	c.Insert(tid(1, 0, 0), renderedOfSize(tid(1, 0, 0), 256))

	if got := c.RemovePage(0); got != 2 {
		t.Errorf("RemovePage(0) = %d, want 2", got)
	}
	if c.Len() != 1 || !c.Contains(tid(1, 0, 0)) {
		t.Error("page 1 tile should survive")
	}
}

func TestRAMEvictToBudget(t *testing.T) {
	c := newRAMBytes(1 << 20)
	for i := 0; i < 8; i++ {
		c.Insert(tid(0, i, 0), renderedOfSize(tid(0, i, 0), 1024))
	}

	evicted := c.EvictToBudget(4 * 1024)
	if evicted != 4 {
		t.Errorf("EvictToBudget evicted %d, want 4", evicted)
	}
	if c.ResidentBytes() > 4*1024 {
		t.Errorf("ResidentBytes = %d after trim", c.ResidentBytes())
	}
	// The configured limit is restored afterwards.
	if c.LimitBytes() != 1<<20 {
		t.Errorf("LimitBytes = %d, want %d", c.LimitBytes(), 1<<20)
	}
}

func TestRAMOnEvictSpill(t *testing.T) {
	c := newRAMBytes(2048)

	var mu sync.Mutex
	spilled := make(map[tile.ID]bool)
	c.OnEvict(func(id tile.ID, r *tile.Rendered) {
		mu.Lock()
		spilled[id] = true
		mu.Unlock()
	})

	a := tid(0, 0, 0)
	c.Insert(a, renderedOfSize(a, 1024))
	c.Insert(tid(0, 1, 0), renderedOfSize(tid(0, 1, 0), 1024))
	c.Insert(tid(0, 2, 0), renderedOfSize(tid(0, 2, 0), 1024))

	mu.Lock()
	defer mu.Unlock()
	if !spilled[a] {
		t.Error("eviction hook should fire for the evicted tile")
	}
}

func TestRAMStats(t *testing.T) {
	c := newRAMBytes(2048)
	a := tid(0, 0, 0)

	c.Insert(a, renderedOfSize(a, 1024))
	c.Get(a)
	c.Get(tid(9, 9, 9))

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", st.Hits, st.Misses)
	}
	if st.HitRate() != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", st.HitRate())
	}
	if st.PeakBytes != 1024 {
		t.Errorf("PeakBytes = %d, want 1024", st.PeakBytes)
	}
}

func TestRAMConcurrentAccess(t *testing.T) {
	c := newRAMBytes(64 * 1024)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := tid(w, i%16, 0)
				c.Insert(id, renderedOfSize(id, 512))
				c.Get(id)
				c.Contains(id)
			}
		}(w)
	}
	wg.Wait()

	if c.ResidentBytes() > 64*1024 {
		t.Errorf("budget exceeded under concurrency: %d", c.ResidentBytes())
	}
}
