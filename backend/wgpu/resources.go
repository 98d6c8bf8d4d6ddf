package wgpu

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/scopeview/gpucore"
)

// ConfigureSurface creates or resizes an offscreen BGRA8 render target for
// the surface.
func (a *Adapter) ConfigureSurface(s gpucore.SurfaceID, width, height int) error {
	if !s.Valid() {
		return fmt.Errorf("wgpu: configure: unknown surface %d", s)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu: configure %v: invalid size %dx%d", s, width, height)
	}
	if t := a.surfaces[s]; t != nil && t.width == width && t.height == height {
		return nil
	}
	a.destroySurface(s)

	tex, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label:         fmt.Sprintf("surface_%v", s),
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: configure %v: create target: %w", s, err)
	}
	view, err := a.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         fmt.Sprintf("surface_%v_view", s),
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		a.device.DestroyTexture(tex)
		return fmt.Errorf("wgpu: configure %v: create target view: %w", s, err)
	}
	a.surfaces[s] = &surfaceTarget{tex: tex, view: view, width: width, height: height}
	return nil
}

func (a *Adapter) destroySurface(s gpucore.SurfaceID) {
	t := a.surfaces[s]
	if t == nil {
		return
	}
	a.device.DestroyTextureView(t.view)
	a.device.DestroyTexture(t.tex)
	a.surfaces[s] = nil
}

// Present is a no-op: surfaces are offscreen targets, and blitting them to a
// window belongs to the embedder's swapchain integration.
func (a *Adapter) Present(s gpucore.SurfaceID) error {
	if !s.Valid() {
		return fmt.Errorf("wgpu: present: unknown surface %d", s)
	}
	return nil
}

// CreateTexture allocates an R16Uint sample texture.
func (a *Adapter) CreateTexture(width, height int, format gpucore.TextureFormat) (gpucore.TextureID, error) {
	if format != gpucore.TextureFormatR16Uint {
		return gpucore.InvalidID, fmt.Errorf("wgpu: texture: unsupported format %d", format)
	}
	if width <= 0 || height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("wgpu: texture: invalid size %dx%d", width, height)
	}
	tex, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "image",
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR16Uint,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create texture: %w", err)
	}
	view, err := a.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "image_view",
		Format:        gputypes.TextureFormatR16Uint,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		a.device.DestroyTexture(tex)
		return gpucore.InvalidID, fmt.Errorf("wgpu: create texture view: %w", err)
	}
	id := gpucore.TextureID(a.nextID.Add(1))
	a.textures[id] = &textureEntry{tex: tex, view: view, width: width, height: height}
	return id, nil
}

// DestroyTexture releases a texture. Unknown IDs are ignored.
func (a *Adapter) DestroyTexture(id gpucore.TextureID) {
	t, ok := a.textures[id]
	if !ok {
		return
	}
	a.device.DestroyTextureView(t.view)
	a.device.DestroyTexture(t.tex)
	delete(a.textures, id)
}

// WriteTexture uploads tightly packed R16Uint texels.
func (a *Adapter) WriteTexture(id gpucore.TextureID, data []byte) error {
	t, ok := a.textures[id]
	if !ok {
		return fmt.Errorf("wgpu: write texture: unknown texture %d", id)
	}
	if len(data) != t.width*t.height*2 {
		return fmt.Errorf("wgpu: write texture: got %d bytes, want %d", len(data), t.width*t.height*2)
	}
	return a.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(t.width * 2),
			RowsPerImage: uint32(t.height),
		},
		&hal.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1},
	)
}

// CreateBuffer allocates a zero-filled buffer.
func (a *Adapter) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("wgpu: buffer: invalid size %d", size)
	}
	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "scopeview_buffer",
		Size:  uint64(size),
		Usage: halBufferUsage(usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create buffer: %w", err)
	}
	id := gpucore.BufferID(a.nextID.Add(1))
	entry := &bufferEntry{buf: buf, size: size}
	a.buffers[id] = entry
	// Buffers start zeroed, matching the contract.
	if err := a.zeroEntry(entry); err != nil {
		a.DestroyBuffer(id)
		return gpucore.InvalidID, err
	}
	return id, nil
}

func halBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var u gputypes.BufferUsage
	if usage&gpucore.BufferUsageMapRead != 0 {
		u |= gputypes.BufferUsageMapRead
	}
	if usage&gpucore.BufferUsageCopySrc != 0 {
		u |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		u |= gputypes.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageVertex != 0 {
		u |= gputypes.BufferUsageVertex
	}
	if usage&gpucore.BufferUsageUniform != 0 {
		u |= gputypes.BufferUsageUniform
	}
	if usage&gpucore.BufferUsageStorage != 0 {
		u |= gputypes.BufferUsageStorage
	}
	return u
}

// DestroyBuffer releases a buffer. Unknown IDs are ignored.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	b, ok := a.buffers[id]
	if !ok {
		return
	}
	a.device.DestroyBuffer(b.buf)
	delete(a.buffers, id)
}

// WriteBuffer uploads data at the given byte offset.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset int, data []byte) error {
	b, ok := a.buffers[id]
	if !ok {
		return fmt.Errorf("wgpu: write buffer: unknown buffer %d", id)
	}
	if offset < 0 || offset+len(data) > b.size {
		return fmt.Errorf("wgpu: write buffer: bad span [%d, %d) in %d-byte buffer", offset, offset+len(data), b.size)
	}
	return a.queue.WriteBuffer(b.buf, uint64(offset), data)
}

// ReadBuffer copies buffer contents to the host through a mappable staging
// buffer, waiting for the copy to complete before mapping.
func (a *Adapter) ReadBuffer(id gpucore.BufferID, offset int, dst []byte) error {
	b, ok := a.buffers[id]
	if !ok {
		return fmt.Errorf("wgpu: read buffer: unknown buffer %d", id)
	}
	if offset < 0 || offset+len(dst) > b.size {
		return fmt.Errorf("wgpu: read buffer: bad span [%d, %d) in %d-byte buffer", offset, offset+len(dst), b.size)
	}
	staging, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback_staging",
		Size:  uint64(len(dst)),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: read buffer: create staging: %w", err)
	}
	defer a.device.DestroyBuffer(staging)

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "readback"})
	if err != nil {
		return fmt.Errorf("wgpu: read buffer: create encoder: %w", err)
	}
	if err := encoder.BeginEncoding("readback"); err != nil {
		return fmt.Errorf("wgpu: read buffer: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(b.buf, staging, []hal.BufferCopy{
		{SrcOffset: uint64(offset), DstOffset: 0, Size: uint64(len(dst))},
	})
	if err := a.submitAndWait(encoder, "readback"); err != nil {
		return err
	}
	mapping, err := a.device.MapBuffer(staging, 0, uint64(len(dst)))
	if err != nil {
		return fmt.Errorf("wgpu: read buffer: map staging: %w", err)
	}
	copy(dst, unsafe.Slice((*byte)(mapping.Ptr), len(dst)))
	if err := a.device.UnmapBuffer(staging); err != nil {
		return fmt.Errorf("wgpu: read buffer: unmap staging: %w", err)
	}
	return nil
}

// ZeroBuffer clears a buffer by uploading zeroes.
func (a *Adapter) ZeroBuffer(id gpucore.BufferID) error {
	b, ok := a.buffers[id]
	if !ok {
		return fmt.Errorf("wgpu: zero buffer: unknown buffer %d", id)
	}
	return a.zeroEntry(b)
}

func (a *Adapter) zeroEntry(b *bufferEntry) error {
	return a.queue.WriteBuffer(b.buf, 0, make([]byte, b.size))
}
