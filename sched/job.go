package sched

import "fmt"

// JobID uniquely identifies a submitted job for the lifetime of one
// scheduler instance. IDs are monotonically increasing.
type JobID uint64

// Priority orders work classes. Lower values are more urgent: tiles the
// user can see beat prefetched margin tiles, which beat thumbnails, which
// beat OCR.
type Priority uint8

const (
	// PriorityVisible is work for tiles currently in the viewport.
	PriorityVisible Priority = iota

	// PriorityMargin is prefetch work for tiles just outside the viewport.
	PriorityMargin

	// PriorityThumbnails is page thumbnail generation.
	PriorityThumbnails

	// PriorityOcr is background text recognition.
	PriorityOcr

	priorityCount
)

// String returns a human-readable name for the priority.
func (p Priority) String() string {
	switch p {
	case PriorityVisible:
		return "visible"
	case PriorityMargin:
		return "margin"
	case PriorityThumbnails:
		return "thumbnails"
	case PriorityOcr:
		return "ocr"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(p))
	}
}

// Payload is the typed work description carried by a job. The set of
// payloads is closed: the scheduler only ever sees these four kinds.
type Payload interface {
	// PageIndex returns the page the work targets, or ok=false for work
	// not tied to a page (file loading).
	PageIndex() (page int, ok bool)

	payload()
}

// RenderTile asks a worker to rasterize one tile of one page.
type RenderTile struct {
	Page     int
	TileX    int
	TileY    int
	Zoom     int
	Rotation int
	Preview  bool
}

// GenerateThumbnail asks a worker to produce a page thumbnail.
type GenerateThumbnail struct {
	Page   int
	Width  int
	Height int
}

// RunOCR asks a worker to run text recognition over a page.
type RunOCR struct {
	Page int
}

// LoadFile asks a worker to open a document from disk.
type LoadFile struct {
	Path string
}

// PageIndex implements Payload.
func (p RenderTile) PageIndex() (int, bool) { return p.Page, true }

// PageIndex implements Payload.
func (p GenerateThumbnail) PageIndex() (int, bool) { return p.Page, true }

// PageIndex implements Payload.
func (p RunOCR) PageIndex() (int, bool) { return p.Page, true }

// PageIndex implements Payload. Loading a file is not page-scoped.
func (p LoadFile) PageIndex() (int, bool) { return 0, false }

func (RenderTile) payload()        {}
func (GenerateThumbnail) payload() {}
func (RunOCR) payload()            {}
func (LoadFile) payload()          {}

// Job pairs an id and priority with its payload. Jobs are immutable after
// submission: the scheduler hands each out at most once.
type Job struct {
	ID       JobID
	Priority Priority
	Payload  Payload
}
