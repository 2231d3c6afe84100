// Package tile defines the shared tile identity model used by the cache
// tiers, the job scheduler, and the progressive loader.
//
// A tile is a fixed-size rectangular pixel region of one rendered page at a
// specific zoom level and rotation. Tiles are addressed by value-type IDs so
// the same key works uniformly as a cache key, a scheduler payload, and a
// loading-state key.
package tile

import (
	"fmt"
	"image"
)

// Profile is the rendering quality tier of a tile.
type Profile uint8

const (
	// ProfilePreview is the fast, low-fidelity pass shown while the final
	// render is in flight.
	ProfilePreview Profile = iota

	// ProfileCrisp is the final, high-fidelity pass.
	ProfileCrisp
)

// String returns a human-readable name for the profile.
func (p Profile) String() string {
	switch p {
	case ProfilePreview:
		return "preview"
	case ProfileCrisp:
		return "crisp"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(p))
	}
}

// ID identifies one tile of one page. It is an immutable value key:
// equality and map hashing are defined by the field values, so two IDs
// built from the same request address the same cache slot.
type ID struct {
	// Page is the zero-based page index within the document.
	Page int

	// Col and Row are the tile coordinates within the page grid.
	Col int
	Row int

	// Zoom is the zoom level index. The pixel scale factor for a level
	// is given by ZoomScale.
	Zoom int

	// Rotation is the page rotation in degrees (0, 90, 180 or 270).
	Rotation int

	// Profile is the rendering quality tier this ID addresses.
	Profile Profile
}

// String returns a compact, stable textual form of the ID. The form is
// also used as the blob key for the disk tier.
func (id ID) String() string {
	return fmt.Sprintf("p%d_c%d_r%d_z%d_rot%d_%s",
		id.Page, id.Col, id.Row, id.Zoom, id.Rotation, id.Profile)
}

// Base returns the ID with the profile cleared. Loading state is tracked
// per tile location, not per quality tier, so the preview and crisp
// renders of one tile share a single Base key.
func (id ID) Base() ID {
	id.Profile = ProfilePreview
	return id
}

// NormalizeRotation maps an arbitrary rotation in degrees onto the
// supported quadrant rotations {0, 90, 180, 270}.
func NormalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg - deg%90
}

// PixelRect returns the bounds of the tile in page pixel space at its zoom
// level. Edge tiles are clipped to the scaled page size.
func (id ID) PixelRect(pageWidth, pageHeight float64) image.Rectangle {
	scale := ZoomScale(id.Zoom)
	w := int(pageWidth * scale)
	h := int(pageHeight * scale)
	r := image.Rect(id.Col*Edge, id.Row*Edge, (id.Col+1)*Edge, (id.Row+1)*Edge)
	return r.Intersect(image.Rect(0, 0, w, h))
}
