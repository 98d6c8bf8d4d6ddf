package native

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/scopeview/gpucore"
)

var identity = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// TestDrawImageClearOnly checks that an invalid image ID leaves only the
// clear color behind.
func TestDrawImageClearOnly(t *testing.T) {
	a := newComputeAdapter(t)
	if err := a.ConfigureSurface(gpucore.SurfaceImage, 8, 8); err != nil {
		t.Fatalf("ConfigureSurface: %v", err)
	}
	err := a.DrawImage(&gpucore.ImageDrawCmd{
		Viewport:   [2]int{8, 8},
		ClearColor: [4]float32{1, 0, 0, 1},
		Image:      gpucore.InvalidID,
		PMV:        identity,
	})
	if err != nil {
		t.Fatalf("DrawImage: %v", err)
	}
	pm := a.Snapshot(gpucore.SurfaceImage)
	r, g, b, _ := pm.At(4, 4).RGBA()
	if r>>8 != 0xFF || g != 0 || b != 0 {
		t.Fatalf("pixel: got (%d, %d, %d), want (255, 0, 0)", r>>8, g>>8, b>>8)
	}
}

// TestDrawImagePlainFillsView checks that an identity transform stretches
// the image over the whole surface with plain 8-bit shading.
func TestDrawImagePlainFillsView(t *testing.T) {
	a := newComputeAdapter(t)
	if err := a.ConfigureSurface(gpucore.SurfaceImage, 16, 16); err != nil {
		t.Fatalf("ConfigureSurface: %v", err)
	}
	img := uploadImage(t, a, []uint16{65535, 65535, 65535, 65535}, 2, 2)
	err := a.DrawImage(&gpucore.ImageDrawCmd{
		Viewport:  [2]int{16, 16},
		Image:     img,
		ImageSize: [2]int{2, 2},
		PMV:       identity,
		Variant:   gpucore.ColorPlain,
		Max:       65535,
		Gamma:     1,
	})
	if err != nil {
		t.Fatalf("DrawImage: %v", err)
	}
	pm := a.Snapshot(gpucore.SurfaceImage)
	for _, p := range [][2]int{{1, 1}, {8, 8}, {14, 14}} {
		r, _, _, _ := pm.At(p[0], p[1]).RGBA()
		if r>>8 != 0xFF {
			t.Fatalf("pixel (%d, %d): got %d, want 255", p[0], p[1], r>>8)
		}
	}
}

// TestDrawImageHighlightWritesActual checks that the draw writes the
// snap-corrected coordinate into the highlight buffer's actual slot.
func TestDrawImageHighlightWritesActual(t *testing.T) {
	a := newComputeAdapter(t)
	if err := a.ConfigureSurface(gpucore.SurfaceImage, 16, 16); err != nil {
		t.Fatalf("ConfigureSurface: %v", err)
	}
	img := uploadImage(t, a, make([]uint16, 16), 4, 4)
	hl, err := a.CreateBuffer(gpucore.HighlightBufferSize,
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc|gpucore.BufferUsageCopyDst)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	// Want pixel (1, 2): wanted = -(coord/size)+1.
	var wanted [8]byte
	binary.LittleEndian.PutUint32(wanted[0:], math.Float32bits(-0.25+1))
	binary.LittleEndian.PutUint32(wanted[4:], math.Float32bits(-0.5+1))
	if err := a.WriteBuffer(hl, 0, wanted[:]); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	err = a.DrawImage(&gpucore.ImageDrawCmd{
		Viewport:  [2]int{16, 16},
		Image:     img,
		ImageSize: [2]int{4, 4},
		PMV:       identity,
		Variant:   gpucore.ColorPlainHighlight,
		Max:       65535,
		Gamma:     1,
		Highlight: hl,
	})
	if err != nil {
		t.Fatalf("DrawImage: %v", err)
	}
	var actual [8]byte
	if err := a.ReadBuffer(hl, gpucore.HighlightActualOffset, actual[:]); err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	ax := math.Float32frombits(binary.LittleEndian.Uint32(actual[0:]))
	ay := math.Float32frombits(binary.LittleEndian.Uint32(actual[4:]))
	// actual = -((i+0.5)/size)+1 for the snapped texel.
	if wantX := float32(-(1.5 / 4.0) + 1); ax != wantX {
		t.Fatalf("actual x: got %g, want %g", ax, wantX)
	}
	if wantY := float32(-(2.5 / 4.0) + 1); ay != wantY {
		t.Fatalf("actual y: got %g, want %g", ay, wantY)
	}
}

// TestDrawHistogramClearOnly checks the no-image path.
func TestDrawHistogramClearOnly(t *testing.T) {
	a := newComputeAdapter(t)
	if err := a.ConfigureSurface(gpucore.SurfaceHistogram, 32, 16); err != nil {
		t.Fatalf("ConfigureSurface: %v", err)
	}
	err := a.DrawHistogram(&gpucore.HistogramDrawCmd{
		Viewport:   [2]int{32, 16},
		ClearColor: [4]float32{0, 0, 0, 1},
		Histogram:  gpucore.InvalidID,
		PMV:        identity,
	})
	if err != nil {
		t.Fatalf("DrawHistogram: %v", err)
	}
	pm := a.Snapshot(gpucore.SurfaceHistogram)
	r, g, b, _ := pm.At(16, 8).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("pixel: got (%d, %d, %d), want black", r>>8, g>>8, b>>8)
	}
}

// TestDrawHistogramPlotsBins checks that a populated histogram leaves plot
// pixels on the surface.
func TestDrawHistogramPlotsBins(t *testing.T) {
	a := newComputeAdapter(t)
	if err := a.ConfigureSurface(gpucore.SurfaceHistogram, 64, 32); err != nil {
		t.Fatalf("ConfigureSurface: %v", err)
	}
	const binCount = 4
	hist, err := a.CreateBuffer(binCount*4,
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc|gpucore.BufferUsageCopyDst)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	counts := make([]byte, binCount*4)
	for i, c := range []uint32{1, 4, 2, 3} {
		binary.LittleEndian.PutUint32(counts[i*4:], c)
	}
	if err := a.WriteBuffer(hist, 0, counts); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	err = a.DrawHistogram(&gpucore.HistogramDrawCmd{
		Viewport:  [2]int{64, 32},
		Histogram: hist,
		BinCount:  binCount,
		BinScale:  4,
		Gamma:     1,
		PMV:       identity,
	})
	if err != nil {
		t.Fatalf("DrawHistogram: %v", err)
	}
	pm := a.Snapshot(gpucore.SurfaceHistogram)
	plotted := 0
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			if r, _, _, _ := pm.At(x, y).RGBA(); r>>8 == 0xE0 {
				plotted++
			}
		}
	}
	if plotted == 0 {
		t.Fatal("no plot pixels rendered")
	}
}
