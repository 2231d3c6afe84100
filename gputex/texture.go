// Package gputex wraps GPU texture resources for the GPU cache tier.
//
// A Texture pairs wgpu resource ids with byte accounting so the cache can
// charge GPU-resident tiles against its budget. GPU memory is scarce and
// not garbage collected, so Release frees the driver-side resources
// synchronously; eviction never defers teardown.
package gputex

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// Texture errors.
var (
	// ErrReleased is returned when operating on a released texture.
	ErrReleased = errors.New("gputex: texture has been released")

	// ErrSizeMismatch is returned when pixel data does not match the
	// texture dimensions.
	ErrSizeMismatch = errors.New("gputex: pixel data does not match texture size")

	// ErrNilPixels is returned when uploading nil pixel data.
	ErrNilPixels = errors.New("gputex: pixel data is nil")

	// ErrInvalidSize is returned for non-positive texture dimensions.
	ErrInvalidSize = errors.New("gputex: texture dimensions must be positive")
)

// Format is the pixel format of a texture.
type Format uint8

const (
	// FormatRGBA8 is standard RGBA with 8 bits per channel.
	FormatRGBA8 Format = iota

	// FormatBGRA8 is BGRA, often required for surface presentation.
	FormatBGRA8

	// FormatR8 is single-channel 8-bit, used for masks.
	FormatR8
)

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	case FormatR8:
		return "R8"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// BytesPerPixel returns the number of bytes per pixel for the format.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBA8, FormatBGRA8:
		return 4
	case FormatR8:
		return 1
	default:
		return 4
	}
}

// ToWGPUFormat converts to the wgpu texture format.
func (f Format) ToWGPUFormat() gputypes.TextureFormat {
	switch f {
	case FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm
	case FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	case FormatR8:
		return gputypes.TextureFormatR8Unorm
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// DefaultUsage is the usage for textures created without explicit flags.
const DefaultUsage = gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding

// Config holds parameters for creating a texture.
type Config struct {
	// Width and Height are the texture dimensions in pixels.
	Width  int
	Height int

	// Format is the pixel format.
	Format Format

	// Label is an optional debug label.
	Label string

	// Usage flags; DefaultUsage when zero.
	Usage gputypes.TextureUsage
}

// Allocator creates and destroys driver-side texture resources. The real
// implementation sits on a wgpu device owned by the rendering backend;
// tests and headless runs use NewNullAllocator.
type Allocator interface {
	// CreateTexture allocates a texture and uploads the initial pixel
	// data. pix is tightly packed rows of cfg.Width*BytesPerPixel bytes.
	CreateTexture(cfg Config, pix []byte) (core.TextureID, core.TextureViewID, error)

	// DestroyTexture releases the driver resources. Must be synchronous:
	// when it returns the memory is reclaimed.
	DestroyTexture(tex core.TextureID, view core.TextureViewID)
}

// Texture is a GPU-resident tile. It is safe for concurrent reads;
// Release may be called from any goroutine and is idempotent.
type Texture struct {
	alloc Allocator

	textureID core.TextureID
	viewID    core.TextureViewID

	width  int
	height int
	format Format
	label  string

	sizeBytes uint64
	released  atomic.Bool
}

// Create allocates a texture through the allocator and uploads pix.
func Create(alloc Allocator, cfg Config, pix []byte) (*Texture, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, cfg.Width, cfg.Height)
	}
	if pix == nil {
		return nil, ErrNilPixels
	}
	want := cfg.Width * cfg.Height * cfg.Format.BytesPerPixel()
	if len(pix) != want {
		return nil, fmt.Errorf("%w: have %d bytes, want %d", ErrSizeMismatch, len(pix), want)
	}
	if cfg.Usage == 0 {
		cfg.Usage = DefaultUsage
	}

	texID, viewID, err := alloc.CreateTexture(cfg, pix)
	if err != nil {
		return nil, fmt.Errorf("gputex: create %q: %w", cfg.Label, err)
	}

	return &Texture{
		alloc:     alloc,
		textureID: texID,
		viewID:    viewID,
		width:     cfg.Width,
		height:    cfg.Height,
		format:    cfg.Format,
		label:     cfg.Label,
		sizeBytes: uint64(want),
	}, nil
}

// FromImage allocates an RGBA8 texture from a decoded image. Sub-images
// are repacked into tight rows before upload.
func FromImage(alloc Allocator, img *image.RGBA, label string) (*Texture, error) {
	if img == nil {
		return nil, ErrNilPixels
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	pix := img.Pix
	if img.Stride != w*4 {
		packed := make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			src := img.Pix[y*img.Stride : y*img.Stride+w*4]
			copy(packed[y*w*4:], src)
		}
		pix = packed
	}

	return Create(alloc, Config{
		Width:  w,
		Height: h,
		Format: FormatRGBA8,
		Label:  label,
	}, pix)
}

// Release frees the driver-side resources synchronously. It is idempotent
// and safe to call concurrently; exactly one caller performs the destroy.
func (t *Texture) Release() {
	if t == nil || !t.released.CompareAndSwap(false, true) {
		return
	}
	t.alloc.DestroyTexture(t.textureID, t.viewID)
}

// Released reports whether Release has been called.
func (t *Texture) Released() bool {
	return t != nil && t.released.Load()
}

// SizeBytes returns the GPU memory charged for this texture.
func (t *Texture) SizeBytes() uint64 { return t.sizeBytes }

// Size returns the texture dimensions in pixels.
func (t *Texture) Size() (w, h int) { return t.width, t.height }

// Format returns the pixel format.
func (t *Texture) Format() Format { return t.format }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// View returns the texture view id for binding in a draw call. Returns an
// error if the texture has been released.
func (t *Texture) View() (core.TextureViewID, error) {
	if t.released.Load() {
		return core.TextureViewID{}, ErrReleased
	}
	return t.viewID, nil
}

// ID returns the underlying texture id.
func (t *Texture) ID() core.TextureID { return t.textureID }
