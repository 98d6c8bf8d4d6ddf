package native

import (
	"errors"
	"testing"

	"github.com/gogpu/scopeview/gpucore"
)

func TestInitTwice(t *testing.T) {
	a := New()
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer a.Close()
	if err := a.Init(); !errors.Is(err, errAlreadyInitialized) {
		t.Fatalf("second Init: got %v, want errAlreadyInitialized", err)
	}
}

func TestUnknownResource(t *testing.T) {
	a := newComputeAdapter(t)
	if err := a.WriteBuffer(gpucore.BufferID(99), 0, []byte{0, 0, 0, 0}); !errors.Is(err, errUnknownResource) {
		t.Fatalf("WriteBuffer: got %v, want errUnknownResource", err)
	}
	if err := a.WriteTexture(gpucore.TextureID(99), nil); !errors.Is(err, errUnknownResource) {
		t.Fatalf("WriteTexture: got %v, want errUnknownResource", err)
	}
}

func TestBufferRoundTrip(t *testing.T) {
	a := newComputeAdapter(t)
	id, err := a.CreateBuffer(16, gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst|gpucore.BufferUsageCopySrc)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := a.WriteBuffer(id, 4, src); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	dst := make([]byte, 8)
	if err := a.ReadBuffer(id, 4, dst); err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("byte %d: got %d, want %d", i, dst[i], src[i])
		}
	}
	if err := a.ZeroBuffer(id); err != nil {
		t.Fatalf("ZeroBuffer: %v", err)
	}
	if err := a.ReadBuffer(id, 4, dst); err != nil {
		t.Fatalf("ReadBuffer after zero: %v", err)
	}
	for i, b := range dst {
		if b != 0 {
			t.Fatalf("byte %d after zero: got %d, want 0", i, b)
		}
	}
}

func TestBufferSpanChecks(t *testing.T) {
	a := newComputeAdapter(t)
	id, err := a.CreateBuffer(8, gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if err := a.WriteBuffer(id, 4, make([]byte, 8)); err == nil {
		t.Fatal("out-of-range write succeeded")
	}
	if err := a.WriteBuffer(id, 2, make([]byte, 4)); err == nil {
		t.Fatal("misaligned write succeeded")
	}
}

func TestConfigureSurfaceAndPresent(t *testing.T) {
	a := newComputeAdapter(t)
	if err := a.ConfigureSurface(gpucore.SurfaceImage, 32, 16); err != nil {
		t.Fatalf("ConfigureSurface: %v", err)
	}
	if got := a.PresentCount(gpucore.SurfaceImage); got != 0 {
		t.Fatalf("presents before: got %d, want 0", got)
	}
	if err := a.Present(gpucore.SurfaceImage); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if got := a.PresentCount(gpucore.SurfaceImage); got != 1 {
		t.Fatalf("presents after: got %d, want 1", got)
	}
	pm := a.Snapshot(gpucore.SurfaceImage)
	if pm == nil {
		t.Fatal("Snapshot: got nil")
	}
	if b := pm.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Fatalf("snapshot size: got %dx%d, want 32x16", b.Dx(), b.Dy())
	}
}

func TestDestroyedResourcesAreGone(t *testing.T) {
	a := newComputeAdapter(t)
	buf, err := a.CreateBuffer(8, gpucore.BufferUsageStorage)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	a.DestroyBuffer(buf)
	if err := a.ReadBuffer(buf, 0, make([]byte, 4)); !errors.Is(err, errUnknownResource) {
		t.Fatalf("got %v, want errUnknownResource", err)
	}
	tex, err := a.CreateTexture(2, 2, gpucore.TextureFormatR16Uint)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	a.DestroyTexture(tex)
	if err := a.WriteTexture(tex, make([]byte, 8)); !errors.Is(err, errUnknownResource) {
		t.Fatalf("got %v, want errUnknownResource", err)
	}
}
