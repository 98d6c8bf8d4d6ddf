// Package native provides a pure Go gpucore.Adapter. It executes the
// histogram compute passes with one goroutine per workgroup over shared
// atomic buffers, mirroring the GPU dispatch geometry, and renders the two
// surfaces into in-memory pixmaps. It needs no GPU hardware, which makes it
// both the fallback backend and the reference the tests run against.
package native

import (
	"encoding/binary"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/scopeview/gpucore"
)

// Adapter implements gpucore.Adapter on the CPU.
//
// The coordinator serializes all calls, but Snapshot and PresentCount may be
// called from other goroutines (tests, embedders reading presented frames),
// so the resource maps and surfaces are mutex-guarded anyway.
type Adapter struct {
	mu          sync.RWMutex
	initialized bool

	nextID   atomic.Uint64
	textures map[gpucore.TextureID]*texture
	buffers  map[gpucore.BufferID]*buffer

	surfaces [gpucore.NumSurfaces]surface
}

// texture is a single-layer R16Uint image.
type texture struct {
	width, height int
	format        gpucore.TextureFormat
	texels        []uint16
}

// buffer stores data as uint32 words so the compute passes can use
// sync/atomic directly on its elements. Byte-level access goes through
// little-endian packing, matching GPU buffer layout.
type buffer struct {
	size  int // logical size in bytes
	usage gpucore.BufferUsage
	words []uint32
}

// surface is one output target plus its presentation bookkeeping.
type surface struct {
	pixmap   *image.RGBA
	presents uint64
}

// New creates an uninitialized CPU adapter.
func New() *Adapter {
	return &Adapter{
		textures: make(map[gpucore.TextureID]*texture),
		buffers:  make(map[gpucore.BufferID]*buffer),
	}
}

// Init prepares the adapter. The CPU backend has no device to acquire; Init
// only arms the resource maps and rejects double initialization.
func (a *Adapter) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return fmt.Errorf("native: %w", errAlreadyInitialized)
	}
	a.initialized = true
	a.nextID.Store(gpucore.InvalidID)
	return nil
}

// Close drops every remaining resource and surface.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return nil
	}
	a.textures = make(map[gpucore.TextureID]*texture)
	a.buffers = make(map[gpucore.BufferID]*buffer)
	for i := range a.surfaces {
		a.surfaces[i] = surface{}
	}
	a.initialized = false
	return nil
}

// Name identifies the backend for logging.
func (a *Adapter) Name() string { return "native" }

// ConfigureSurface creates or resizes a surface pixmap.
func (a *Adapter) ConfigureSurface(s gpucore.SurfaceID, width, height int) error {
	if !s.Valid() {
		return fmt.Errorf("native: configure: %w: %d", errUnknownSurface, s)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("native: configure %v: invalid size %dx%d", s, width, height)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	sf := &a.surfaces[s]
	if sf.pixmap != nil && sf.pixmap.Rect.Dx() == width && sf.pixmap.Rect.Dy() == height {
		return nil
	}
	sf.pixmap = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// Present bumps the surface's presentation counter. The CPU backend has no
// display; embedders read frames via Snapshot.
func (a *Adapter) Present(s gpucore.SurfaceID) error {
	if !s.Valid() {
		return fmt.Errorf("native: present: %w: %d", errUnknownSurface, s)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.surfaces[s].presents++
	return nil
}

// Snapshot returns a copy of the surface's current pixmap, or nil if the
// surface has not been configured.
func (a *Adapter) Snapshot(s gpucore.SurfaceID) *image.RGBA {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !s.Valid() || a.surfaces[s].pixmap == nil {
		return nil
	}
	src := a.surfaces[s].pixmap
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

// PresentCount returns how many times the surface has been presented.
func (a *Adapter) PresentCount(s gpucore.SurfaceID) uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !s.Valid() {
		return 0
	}
	return a.surfaces[s].presents
}

// CreateTexture allocates a zeroed texture.
func (a *Adapter) CreateTexture(width, height int, format gpucore.TextureFormat) (gpucore.TextureID, error) {
	if width <= 0 || height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("native: texture: invalid size %dx%d", width, height)
	}
	if format != gpucore.TextureFormatR16Uint {
		return gpucore.InvalidID, fmt.Errorf("native: texture: unsupported format %d", format)
	}
	t := &texture{
		width:  width,
		height: height,
		format: format,
		texels: make([]uint16, width*height),
	}
	id := gpucore.TextureID(a.nextID.Add(1))
	a.mu.Lock()
	a.textures[id] = t
	a.mu.Unlock()
	return id, nil
}

// DestroyTexture releases a texture. Unknown IDs are ignored.
func (a *Adapter) DestroyTexture(id gpucore.TextureID) {
	a.mu.Lock()
	delete(a.textures, id)
	a.mu.Unlock()
}

// WriteTexture uploads tightly packed little-endian R16Uint texels.
func (a *Adapter) WriteTexture(id gpucore.TextureID, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.textures[id]
	if !ok {
		return fmt.Errorf("native: write texture: %w: %d", errUnknownResource, id)
	}
	if len(data) != len(t.texels)*2 {
		return fmt.Errorf("native: write texture: got %d bytes, want %d", len(data), len(t.texels)*2)
	}
	for i := range t.texels {
		t.texels[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return nil
}

// CreateBuffer allocates a zero-filled buffer. Sizes must be multiples of 4
// bytes; every buffer in the pipelines holds uint32 or float32 elements.
func (a *Adapter) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size <= 0 || size%4 != 0 {
		return gpucore.InvalidID, fmt.Errorf("native: buffer: invalid size %d", size)
	}
	b := &buffer{size: size, usage: usage, words: make([]uint32, size/4)}
	id := gpucore.BufferID(a.nextID.Add(1))
	a.mu.Lock()
	a.buffers[id] = b
	a.mu.Unlock()
	return id, nil
}

// DestroyBuffer releases a buffer. Unknown IDs are ignored.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	delete(a.buffers, id)
	a.mu.Unlock()
}

// WriteBuffer uploads data at a 4-byte-aligned offset.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset int, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.buffers[id]
	if !ok {
		return fmt.Errorf("native: write buffer: %w: %d", errUnknownResource, id)
	}
	if err := checkSpan(b, offset, len(data)); err != nil {
		return fmt.Errorf("native: write buffer: %w", err)
	}
	for i := 0; i < len(data); i += 4 {
		b.words[(offset+i)/4] = binary.LittleEndian.Uint32(data[i:])
	}
	return nil
}

// ReadBuffer copies buffer contents into dst. The CPU backend is fully
// synchronous, so there is no GPU work to wait for.
func (a *Adapter) ReadBuffer(id gpucore.BufferID, offset int, dst []byte) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	b, ok := a.buffers[id]
	if !ok {
		return fmt.Errorf("native: read buffer: %w: %d", errUnknownResource, id)
	}
	if err := checkSpan(b, offset, len(dst)); err != nil {
		return fmt.Errorf("native: read buffer: %w", err)
	}
	for i := 0; i < len(dst); i += 4 {
		binary.LittleEndian.PutUint32(dst[i:], b.words[(offset+i)/4])
	}
	return nil
}

// ZeroBuffer clears a buffer to all zero bytes.
func (a *Adapter) ZeroBuffer(id gpucore.BufferID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.buffers[id]
	if !ok {
		return fmt.Errorf("native: zero buffer: %w: %d", errUnknownResource, id)
	}
	clear(b.words)
	return nil
}

func checkSpan(b *buffer, offset, n int) error {
	if offset < 0 || offset%4 != 0 || n%4 != 0 || offset+n > b.size {
		return fmt.Errorf("bad span [%d, %d) in %d-byte buffer", offset, offset+n, b.size)
	}
	return nil
}

// texture returns the texture for id, or an error naming the operation.
func (a *Adapter) texture(id gpucore.TextureID, op string) (*texture, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.textures[id]
	if !ok {
		return nil, fmt.Errorf("native: %s: %w: texture %d", op, errUnknownResource, id)
	}
	return t, nil
}

// buffer returns the buffer for id, or an error naming the operation.
func (a *Adapter) buffer(id gpucore.BufferID, op string) (*buffer, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	b, ok := a.buffers[id]
	if !ok {
		return nil, fmt.Errorf("native: %s: %w: buffer %d", op, errUnknownResource, id)
	}
	return b, nil
}
