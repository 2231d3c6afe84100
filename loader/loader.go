package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/apotenza92/butterpaper/cache"
	"github.com/apotenza92/butterpaper/sched"
	"github.com/apotenza92/butterpaper/tile"
)

// Callback receives each published loading-state transition together
// with the render that caused it. The UI binds a displayable resource
// and requests a redraw here. Callbacks run synchronously on the loading
// goroutine; keep them fast.
type Callback func(id tile.ID, state State, r *tile.Rendered)

// Config holds parameters for creating a Loader.
type Config struct {
	// Renderer produces pixels. Required.
	Renderer Renderer

	// RAM receives every successful render. Required.
	RAM *cache.RAMCache

	// Callback is invoked on every published transition. Optional.
	Callback Callback
}

// Loader orchestrates the two-stage render sequence per tile and tracks
// loading state. State lives in a side map keyed by tile location (the
// profile-stripped ID), distinct from the cache payloads, so it can be
// queried even after a tile has been evicted.
//
// Loader is safe for concurrent use.
type Loader struct {
	renderer Renderer
	ram      *cache.RAMCache
	callback Callback

	mu     sync.Mutex
	states map[tile.ID]State
}

// New creates a Loader.
func New(cfg Config) (*Loader, error) {
	if cfg.Renderer == nil {
		return nil, ErrNilRenderer
	}
	if cfg.RAM == nil {
		return nil, fmt.Errorf("loader: RAM cache is nil")
	}
	return &Loader{
		renderer: cfg.Renderer,
		ram:      cfg.RAM,
		callback: cfg.Callback,
		states:   make(map[tile.ID]State),
	}, nil
}

// State returns the current loading state of a tile location. The
// profile of the given ID is ignored.
func (l *Loader) State(id tile.ID) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[id.Base()]
}

// advance moves a tile's state forward, never backward. Returns the
// state now in effect.
func (l *Loader) advance(base tile.ID, to State) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur := l.states[base]; cur >= to {
		return cur
	}
	l.states[base] = to
	return to
}

func (l *Loader) publish(id tile.ID, state State, r *tile.Rendered) {
	if l.callback != nil {
		l.callback(id, state, r)
	}
}

// stateFor maps a profile to the state its completed render publishes.
func stateFor(p tile.Profile) State {
	if p == tile.ProfileCrisp {
		return StateCrispLoaded
	}
	return StatePreviewLoaded
}

// LoadStage renders the quality pass selected by id.Profile for one
// tile, caches the result, and publishes the state
// transition. A pass whose state has already been reached (or passed) is
// served from cache when possible instead of re-rendered.
//
// Cancellation is cooperative and not an error: when tok reports
// cancellation before the result is published, the render is discarded
// with no cache or state mutation and LoadStage returns nil.
func (l *Loader) LoadStage(ctx context.Context, doc Document, id tile.ID, tok sched.Token) error {
	if id.Page < 0 || id.Page >= doc.PageCount {
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, id.Page, doc.PageCount)
	}
	if tok.Cancelled() {
		return nil
	}

	target := stateFor(id.Profile)
	base := id.Base()

	l.mu.Lock()
	cur := l.states[base]
	l.mu.Unlock()

	// A preview pass is pointless once the crisp render has been
	// published; republish the resident crisp tile if we still have it.
	if cur >= target {
		cached := id
		if cur == StateCrispLoaded {
			cached.Profile = tile.ProfileCrisp
		}
		if r, ok := l.ram.Get(cached); ok {
			l.publish(cached, cur, r)
			return nil
		}
		if cur > target {
			// Crisp already seen but evicted: fall through and
			// re-render the crisp profile, not the stale preview.
			id.Profile = tile.ProfileCrisp
			target = StateCrispLoaded
		}
	}

	r, err := l.renderer.RenderTile(ctx, doc, id)
	if err != nil {
		return fmt.Errorf("loader: render %s: %w", id, err)
	}
	if tok.Cancelled() {
		// Finished after cancellation: discard, publish nothing.
		return nil
	}

	l.ram.Insert(id, r)
	now := l.advance(base, target)
	l.publish(id, now, r)
	return nil
}

// LoadTile drives the full two-stage sequence for one tile: preview pass,
// publish PreviewLoaded, crisp pass, publish CrispLoaded. If the tile has
// already reached CrispLoaded the preview pass is skipped entirely.
func (l *Loader) LoadTile(ctx context.Context, doc Document, id tile.ID, tok sched.Token) error {
	if l.State(id) < StateCrispLoaded {
		preview := id
		preview.Profile = tile.ProfilePreview
		if err := l.LoadStage(ctx, doc, preview, tok); err != nil {
			return err
		}
		if tok.Cancelled() {
			return nil
		}
	}

	crisp := id
	crisp.Profile = tile.ProfileCrisp
	return l.LoadStage(ctx, doc, crisp, tok)
}

// LoadPageTiles loads every tile of a page in two full passes: all
// preview tiles first, then all crisp tiles. A complete low-fidelity
// page beats one perfect tile amid blanks, so the page reaches
// fully-visible as early as possible.
//
// A render error aborts the call and propagates; tiles published in
// earlier iterations keep their state. Cancellation between tiles stops
// cleanly with no error.
func (l *Loader) LoadPageTiles(ctx context.Context, doc Document, page, zoom, rotation int, tok sched.Token) error {
	if page < 0 || page >= doc.PageCount {
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, doc.PageCount)
	}
	cols, rows := l.renderer.TileGrid(doc, page, zoom)

	for _, profile := range []tile.Profile{tile.ProfilePreview, tile.ProfileCrisp} {
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				if tok.Cancelled() {
					return nil
				}
				id := tile.ID{
					Page:     page,
					Col:      col,
					Row:      row,
					Zoom:     zoom,
					Rotation: rotation,
					Profile:  profile,
				}
				if err := l.LoadStage(ctx, doc, id, tok); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// EnqueuePageTiles submits render jobs for every tile of a page to the
// scheduler instead of rendering inline: one preview job per tile, then
// one crisp job per tile, so workers preserve the two-pass order within
// the priority level's FIFO. Returns the submitted job ids.
func (l *Loader) EnqueuePageTiles(s *sched.Scheduler, doc Document, page, zoom, rotation int, prio sched.Priority) ([]sched.JobID, error) {
	if page < 0 || page >= doc.PageCount {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, doc.PageCount)
	}
	cols, rows := l.renderer.TileGrid(doc, page, zoom)

	ids := make([]sched.JobID, 0, 2*cols*rows)
	for _, preview := range []bool{true, false} {
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				ids = append(ids, s.Submit(prio, sched.RenderTile{
					Page:     page,
					TileX:    col,
					TileY:    row,
					Zoom:     zoom,
					Rotation: rotation,
					Preview:  preview,
				}))
			}
		}
	}
	return ids, nil
}

// HandleJob executes a RenderTile job popped by a worker, mapping it back
// to the matching LoadStage call. Non-render payloads are ignored so the
// same handler can sit in a pool that also sees thumbnail or OCR jobs.
func (l *Loader) HandleJob(ctx context.Context, doc Document, job sched.Job, tok sched.Token) error {
	rt, ok := job.Payload.(sched.RenderTile)
	if !ok {
		return nil
	}
	profile := tile.ProfileCrisp
	if rt.Preview {
		profile = tile.ProfilePreview
	}
	id := tile.ID{
		Page:     rt.Page,
		Col:      rt.TileX,
		Row:      rt.TileY,
		Zoom:     rt.Zoom,
		Rotation: rt.Rotation,
		Profile:  profile,
	}
	return l.LoadStage(ctx, doc, id, tok)
}

// ResetPage forgets the loading state of every tile on a page, so the
// next load starts from NotLoaded. Cached pixels are untouched; pair
// with RAMCache.RemovePage when the page content itself changed.
func (l *Loader) ResetPage(page int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id := range l.states {
		if id.Page == page {
			delete(l.states, id)
		}
	}
}
