package scopeview

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/scopeview/gpucore"
)

// Resource lifecycle. Every GPU resource the renderer owns lives in a slot
// with an explicit live flag; nothing ever compares handles against a
// reserved "invalid" value. ensure reuses a live slot with matching
// geometry, releases and reallocates on mismatch, and allocates when empty.
// release on an empty slot is a no-op.

type textureSlot struct {
	id            gpucore.TextureID
	live          bool
	width, height int
}

func (s *textureSlot) ensure(a gpucore.Adapter, width, height int) (gpucore.TextureID, error) {
	if s.live && s.width == width && s.height == height {
		return s.id, nil
	}
	s.release(a)
	id, err := a.CreateTexture(width, height, gpucore.TextureFormatR16Uint)
	if err != nil {
		return gpucore.InvalidID, err
	}
	s.id = id
	s.live = true
	s.width = width
	s.height = height
	return id, nil
}

func (s *textureSlot) release(a gpucore.Adapter) {
	if !s.live {
		return
	}
	a.DestroyTexture(s.id)
	*s = textureSlot{}
}

type bufferSlot struct {
	id    gpucore.BufferID
	live  bool
	size  int
	usage gpucore.BufferUsage
}

// ensure returns the slot's buffer, reporting whether it had to be
// (re)created so callers can refill content that outlives reuse.
func (s *bufferSlot) ensure(a gpucore.Adapter, size int, usage gpucore.BufferUsage) (gpucore.BufferID, bool, error) {
	if s.live && s.size == size && s.usage == usage {
		return s.id, false, nil
	}
	s.release(a)
	id, err := a.CreateBuffer(size, usage)
	if err != nil {
		return gpucore.InvalidID, false, err
	}
	s.id = id
	s.live = true
	s.size = size
	s.usage = usage
	return id, true, nil
}

func (s *bufferSlot) release(a gpucore.Adapter) {
	if !s.live {
		return
	}
	a.DestroyBuffer(s.id)
	*s = bufferSlot{}
}

// resourceSet is the full set of renderer-owned GPU resources.
type resourceSet struct {
	image      textureSlot
	blocks     bufferSlot
	histogram  bufferSlot
	extrema    bufferSlot
	highlight  bufferSlot
	histoVerts bufferSlot
}

// releaseAll tears down in reverse acquisition order.
func (r *resourceSet) releaseAll(a gpucore.Adapter) {
	r.histoVerts.release(a)
	r.highlight.release(a)
	r.extrema.release(a)
	r.histogram.release(a)
	r.blocks.release(a)
	r.image.release(a)
}

// ensureExtrema returns the extrema buffer, reseeded to {0xFFFFFFFF, 0}
// so atomic min/max converge from the empty state.
func (r *resourceSet) ensureExtrema(a gpucore.Adapter) (gpucore.BufferID, error) {
	id, _, err := r.extrema.ensure(a, gpucore.ExtremaBufferSize,
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc|gpucore.BufferUsageCopyDst)
	if err != nil {
		return gpucore.InvalidID, err
	}
	seed := make([]byte, gpucore.ExtremaBufferSize)
	binary.LittleEndian.PutUint32(seed, math.MaxUint32)
	if err := a.WriteBuffer(id, 0, seed); err != nil {
		return gpucore.InvalidID, err
	}
	return id, nil
}

// ensureHighlight returns the highlight readback buffer and whether it was
// freshly created, in which case the caller must write the wanted
// coordinate regardless of its cache.
func (r *resourceSet) ensureHighlight(a gpucore.Adapter) (gpucore.BufferID, bool, error) {
	return r.highlight.ensure(a, gpucore.HighlightBufferSize,
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc|gpucore.BufferUsageCopyDst)
}

// ensureHistoVerts returns the histogram vertex buffer, filling it with
// ascending float32 bin indices whenever it is (re)created.
func (r *resourceSet) ensureHistoVerts(a gpucore.Adapter, binCount int) (gpucore.BufferID, error) {
	id, created, err := r.histoVerts.ensure(a, binCount*4,
		gpucore.BufferUsageVertex|gpucore.BufferUsageCopyDst)
	if err != nil {
		return gpucore.InvalidID, err
	}
	if created {
		verts := make([]byte, binCount*4)
		for i := 0; i < binCount; i++ {
			binary.LittleEndian.PutUint32(verts[i*4:], math.Float32bits(float32(i)))
		}
		if err := a.WriteBuffer(id, 0, verts); err != nil {
			return gpucore.InvalidID, fmt.Errorf("fill histogram vertices: %w", err)
		}
	}
	return id, nil
}
