package loader

import (
	"image"

	"golang.org/x/image/draw"
)

// Downscale resamples src to exactly w×h with a fast bilinear kernel.
// It backs the ultra-low-fidelity page previews, where speed matters
// more than quality.
func Downscale(src *image.RGBA, w, h int) *image.RGBA {
	if src == nil || w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// Thumbnail resamples src to fit within maxW×maxH preserving aspect
// ratio, using a high-quality kernel. Thumbnails are rendered once and
// cached, so the extra filtering cost is acceptable.
func Thumbnail(src *image.RGBA, maxW, maxH int) *image.RGBA {
	if src == nil || maxW <= 0 || maxH <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	w, h := maxW, sh*maxW/sw
	if h > maxH {
		w, h = sw*maxH/sh, maxH
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
