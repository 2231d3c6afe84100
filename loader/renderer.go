// Package loader drives progressive tile loading: a cheap preview pass
// published as soon as it lands, followed by the high-fidelity crisp pass.
//
// The loader never rasterizes pixels itself; it orchestrates an external
// Renderer, tracks per-tile loading state, and republishes transitions to
// the UI through a callback.
package loader

import (
	"context"
	"errors"

	"github.com/apotenza92/butterpaper/tile"
)

// Loader errors.
var (
	// ErrNilRenderer is returned when constructing a loader without a
	// renderer.
	ErrNilRenderer = errors.New("loader: renderer is nil")

	// ErrPageOutOfRange is returned for a page index outside the
	// document. It indicates a caller bug and is never silently
	// defaulted.
	ErrPageOutOfRange = errors.New("loader: page index out of range")
)

// Document is the opaque identity handed over by the external document
// manager. The loader treats every field as a plain key or bound; it
// never parses the document itself.
type Document struct {
	// Fingerprint is a stable identifier for the document and,
	// implicitly, its version. It namespaces preview cache entries.
	Fingerprint string

	// PageCount bounds valid page indices.
	PageCount int

	// PageWidth and PageHeight are the base page dimensions in pixels
	// at zoom level 0, used for tile grid computation.
	PageWidth  float64
	PageHeight float64
}

// Renderer is the external rasterizer contract. Implementations turn a
// tile request into pixels; everything about how is outside this core.
//
// The backend set is open (PDF, image stacks, test doubles), so this
// stays an interface rather than a closed variant set.
type Renderer interface {
	// RenderTile rasterizes one tile. The tile's Profile selects the
	// quality tier. Implementations should honor ctx cancellation on
	// long renders.
	RenderTile(ctx context.Context, doc Document, id tile.ID) (*tile.Rendered, error)

	// TileGrid returns the tile grid dimensions for a page at a zoom
	// level.
	TileGrid(doc Document, page, zoom int) (cols, rows int)
}

// GridRenderer is a partial Renderer helper: embed it to get the standard
// grid math for uniformly sized pages.
type GridRenderer struct{}

// TileGrid computes the grid from the document's base page size.
func (GridRenderer) TileGrid(doc Document, page, zoom int) (cols, rows int) {
	return tile.Grid(doc.PageWidth, doc.PageHeight, zoom)
}
