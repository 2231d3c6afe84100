package tile

import "image"

// Rendered is the output of one tile render: decoded RGBA pixels plus the
// byte accounting the cache tiers charge against their budgets.
//
// Rendered values are treated as immutable once published to a cache.
type Rendered struct {
	// ID is the tile this render answers.
	ID ID

	// Pixels holds the decoded image. Never nil for a successful render.
	Pixels *image.RGBA
}

// DecodedBytes returns the resident size of the decoded pixel data.
func (r *Rendered) DecodedBytes() uint64 {
	if r == nil || r.Pixels == nil {
		return 0
	}
	return uint64(len(r.Pixels.Pix))
}

// Size returns the pixel dimensions of the rendered tile.
func (r *Rendered) Size() (w, h int) {
	if r == nil || r.Pixels == nil {
		return 0, 0
	}
	b := r.Pixels.Bounds()
	return b.Dx(), b.Dy()
}
