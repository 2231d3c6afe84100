package gputex

import (
	"sync/atomic"

	"github.com/gogpu/wgpu/core"
)

// NullAllocator is a CPU-only Allocator for tests and headless runs. It
// tracks logical allocations and byte totals without touching a device,
// mirroring the logical-texture mode of the GPU backend.
type NullAllocator struct {
	createCount  atomic.Uint64
	destroyCount atomic.Uint64
}

// NewNullAllocator creates an empty null allocator.
func NewNullAllocator() *NullAllocator {
	return &NullAllocator{}
}

// CreateTexture implements Allocator with a logical allocation.
func (a *NullAllocator) CreateTexture(cfg Config, pix []byte) (core.TextureID, core.TextureViewID, error) {
	a.createCount.Add(1)
	// Logical handles only; the zero wgpu ids are never dereferenced.
	return core.TextureID{}, core.TextureViewID{}, nil
}

// DestroyTexture implements Allocator.
func (a *NullAllocator) DestroyTexture(core.TextureID, core.TextureViewID) {
	a.destroyCount.Add(1)
}

// Created returns the number of CreateTexture calls.
func (a *NullAllocator) Created() uint64 { return a.createCount.Load() }

// Destroyed returns the number of DestroyTexture calls.
func (a *NullAllocator) Destroyed() uint64 { return a.destroyCount.Load() }
