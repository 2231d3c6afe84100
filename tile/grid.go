package tile

import "math"

// Edge is the tile edge length in pixels. 256 pixels keeps a full RGBA
// tile at 256 KB, large enough to amortize per-tile render setup and
// small enough that eviction granularity stays fine.
const Edge = 256

// Bytes is the decoded size of a full RGBA tile.
const Bytes = Edge * Edge * 4

// ZoomScale returns the pixel scale factor for a zoom level index.
// Level 0 is 1:1; each level doubles or halves the scale.
func ZoomScale(level int) float64 {
	return math.Pow(2, float64(level))
}

// Grid returns the number of tile columns and rows needed to cover a page
// of the given size (in base pixels) at a zoom level. Edge tiles may be
// partial. Non-positive page dimensions yield an empty grid.
func Grid(pageWidth, pageHeight float64, zoom int) (cols, rows int) {
	if pageWidth <= 0 || pageHeight <= 0 {
		return 0, 0
	}
	scale := ZoomScale(zoom)
	w := int(math.Ceil(pageWidth * scale))
	h := int(math.Ceil(pageHeight * scale))
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	cols = (w + Edge - 1) / Edge
	rows = (h + Edge - 1) / Edge
	return cols, rows
}
