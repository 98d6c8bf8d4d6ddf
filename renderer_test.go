package scopeview

import (
	"errors"
	"testing"

	"github.com/gogpu/scopeview/backend/native"
)

// newTestRenderer starts a renderer over the native backend with both
// surfaces sized, so update requests are not dropped for lack of a view.
func newTestRenderer(t *testing.T, opts ...Option) (*Renderer, *native.Adapter) {
	t.Helper()
	a := native.New()
	r := New(a, opts...)
	if err := r.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	for _, s := range []SurfaceID{SurfaceImage, SurfaceHistogram} {
		if err := r.SetViewSize(s, 64, 48); err != nil {
			t.Fatalf("SetViewSize(%v): %v", s, err)
		}
	}
	return r, a
}

func TestInitTwiceFails(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.Init(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second Init: got %v, want ErrAlreadyInitialized", err)
	}
}

func TestRequestUpdateBeforeInit(t *testing.T) {
	r := New(native.New())
	if err := r.RequestUpdate(SurfaceImage); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("got %v, want ErrNotInitialized", err)
	}
}

func TestRequestUpdateUnknownSurface(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.RequestUpdate(SurfaceID(17)); !errors.Is(err, ErrUnknownSurface) {
		t.Fatalf("got %v, want ErrUnknownSurface", err)
	}
}

func TestRequestUpdateAfterClose(t *testing.T) {
	a := native.New()
	r := New(a)
	if err := r.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.RequestUpdate(SurfaceImage); !errors.Is(err, ErrClosed) {
		t.Fatalf("got %v, want ErrClosed", err)
	}
}

// TestHistogramSumsToPixelCount checks the core invariant: after any image
// upload the consolidated bins sum to width*height.
func TestHistogramSumsToPixelCount(t *testing.T) {
	r, _ := newTestRenderer(t, WithBinCount(16))
	const w, h = 37, 23
	samples := make([]uint16, w*h)
	for i := range samples {
		samples[i] = uint16(i * 2731)
	}
	if err := r.SetImage(samples, w, h, FilterNearest); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	r.drain()
	var sum uint64
	r.Histogram(func(bins []uint32) {
		for _, b := range bins {
			sum += uint64(b)
		}
	})
	if sum != w*h {
		t.Fatalf("histogram sum: got %d, want %d", sum, w*h)
	}
}

// TestHistogramSmallImage pins down the 4-sample scenario: values 10, 5,
// 5, 20 with 4 bins all land in bin zero, and the sample extrema are the
// true min and max.
func TestHistogramSmallImage(t *testing.T) {
	r, _ := newTestRenderer(t, WithBinCount(4))
	if err := r.SetImage([]uint16{10, 5, 5, 20}, 4, 1, FilterNearest); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	r.drain()

	var bins [4]uint32
	r.Histogram(func(b []uint32) { copy(bins[:], b) })
	if got := bins[0] + bins[1] + bins[2] + bins[3]; got != 4 {
		t.Fatalf("histogram sum: got %d, want 4", got)
	}
	if bins[0] != 4 {
		t.Fatalf("bin 0: got %d, want 4 (all samples below 16384)", bins[0])
	}
	if got := r.HistogramMax(); got != 4 {
		t.Fatalf("HistogramMax: got %d, want 4", got)
	}
	ext, ok := r.Extrema()
	if !ok {
		t.Fatal("Extrema: got ok=false, want true")
	}
	if ext.Min != 5 || ext.Max != 20 {
		t.Fatalf("Extrema: got (%d, %d), want (5, 20)", ext.Min, ext.Max)
	}
}

// TestAllEqualImageExtrema checks that a constant image reports identical
// min and max rather than seed values.
func TestAllEqualImageExtrema(t *testing.T) {
	r, _ := newTestRenderer(t)
	samples := make([]uint16, 9)
	for i := range samples {
		samples[i] = 777
	}
	if err := r.SetImage(samples, 3, 3, FilterNearest); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	ext, ok := r.Extrema()
	if !ok {
		t.Fatal("Extrema: got ok=false, want true")
	}
	if ext.Min != 777 || ext.Max != 777 {
		t.Fatalf("Extrema: got (%d, %d), want (777, 777)", ext.Min, ext.Max)
	}
}

// TestClearImageInvalidatesExtrema checks that clearing the image drops
// both cached and in-flight extrema.
func TestClearImageInvalidatesExtrema(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.SetImage([]uint16{1, 2, 3, 4}, 2, 2, FilterNearest); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	if _, ok := r.Extrema(); !ok {
		t.Fatal("Extrema before clear: got ok=false, want true")
	}
	if err := r.SetImage(nil, 0, 0, FilterNearest); err != nil {
		t.Fatalf("SetImage(nil): %v", err)
	}
	if _, ok := r.Extrema(); ok {
		t.Fatal("Extrema after clear: got ok=true, want false")
	}
}

// TestBinCountChangeAllocatesFreshArray checks that changing the bin count
// installs a new zeroed array instead of reslicing the old one.
func TestBinCountChangeAllocatesFreshArray(t *testing.T) {
	r, _ := newTestRenderer(t, WithBinCount(8))
	if err := r.SetImage([]uint16{0, 65535}, 2, 1, FilterNearest); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	r.drain()
	var before *uint32
	r.Histogram(func(b []uint32) { before = &b[0] })

	if err := r.SetHistogramBinCount(32); err != nil {
		t.Fatalf("SetHistogramBinCount: %v", err)
	}
	r.drain()
	var after *uint32
	var n int
	var sum uint32
	r.Histogram(func(b []uint32) {
		after = &b[0]
		n = len(b)
		for _, v := range b {
			sum += v
		}
	})
	if n != 32 {
		t.Fatalf("bin array length: got %d, want 32", n)
	}
	if before == after {
		t.Fatal("bin array was reused across a bin-count change")
	}
	if sum != 2 {
		t.Fatalf("recomputed histogram sum: got %d, want 2", sum)
	}
}

// TestSetSameBinCountIsNoOp checks that re-setting the current bin count
// keeps the existing bin array.
func TestSetSameBinCountIsNoOp(t *testing.T) {
	r, _ := newTestRenderer(t, WithBinCount(8))
	if err := r.SetImage([]uint16{0, 65535}, 2, 1, FilterNearest); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	r.drain()
	var before *uint32
	r.Histogram(func(b []uint32) { before = &b[0] })
	if err := r.SetHistogramBinCount(8); err != nil {
		t.Fatalf("SetHistogramBinCount: %v", err)
	}
	r.drain()
	var after *uint32
	r.Histogram(func(b []uint32) { after = &b[0] })
	if before != after {
		t.Fatal("bin array was replaced despite unchanged bin count")
	}
}

// TestRequestUpdateCoalesces checks that requests made while the pending
// flag is set produce no additional draws, and that clearing the flag
// re-arms the surface.
func TestRequestUpdateCoalesces(t *testing.T) {
	r, a := newTestRenderer(t)
	r.drain()
	base := a.PresentCount(SurfaceImage)

	r.mu.Lock()
	r.pending[SurfaceImage] = true
	r.mu.Unlock()
	for i := 0; i < 3; i++ {
		if err := r.RequestUpdate(SurfaceImage); err != nil {
			t.Fatalf("RequestUpdate %d: %v", i, err)
		}
	}
	r.mu.Lock()
	r.pending[SurfaceImage] = false
	r.mu.Unlock()
	r.drain()
	if got := a.PresentCount(SurfaceImage); got != base {
		t.Fatalf("presents while pending: got %d, want %d", got, base)
	}

	if err := r.RequestUpdate(SurfaceImage); err != nil {
		t.Fatalf("RequestUpdate: %v", err)
	}
	r.drain()
	if got := a.PresentCount(SurfaceImage); got != base+1 {
		t.Fatalf("presents after re-arm: got %d, want %d", got, base+1)
	}
}

// TestRequestUpdateDrawsOnce checks the plain path: one request, one
// present.
func TestRequestUpdateDrawsOnce(t *testing.T) {
	r, a := newTestRenderer(t)
	r.drain()
	base := a.PresentCount(SurfaceHistogram)
	if err := r.RequestUpdate(SurfaceHistogram); err != nil {
		t.Fatalf("RequestUpdate: %v", err)
	}
	r.drain()
	if got := a.PresentCount(SurfaceHistogram); got != base+1 {
		t.Fatalf("presents: got %d, want %d", got, base+1)
	}
}

// TestRequestUpdateWithoutViewIsDropped checks that a surface with no view
// size silently ignores update requests.
func TestRequestUpdateWithoutViewIsDropped(t *testing.T) {
	a := native.New()
	r := New(a)
	if err := r.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	if err := r.RequestUpdate(SurfaceImage); err != nil {
		t.Fatalf("RequestUpdate: %v", err)
	}
	r.drain()
	if got := a.PresentCount(SurfaceImage); got != 0 {
		t.Fatalf("presents: got %d, want 0", got)
	}
}

// TestSetImageCopiesSamples checks that the renderer is immune to caller
// mutation of the sample slice after SetImage returns.
func TestSetImageCopiesSamples(t *testing.T) {
	r, _ := newTestRenderer(t)
	samples := []uint16{1, 2, 3, 4}
	if err := r.SetImage(samples, 2, 2, FilterNearest); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	samples[0] = 9999
	got, w, h := r.Image()
	if w != 2 || h != 2 {
		t.Fatalf("Image dims: got %dx%d, want 2x2", w, h)
	}
	if got[0] != 1 {
		t.Fatalf("sample 0: got %d, want 1 (caller mutation leaked in)", got[0])
	}
}

// TestSetImageVisibleOnReturn checks that SetImage and
// SetHistogramBinCount block until the coordinator has applied them:
// accessors called right after observe the new image and histogram with no
// synchronization in between.
func TestSetImageVisibleOnReturn(t *testing.T) {
	r, _ := newTestRenderer(t, WithBinCount(8))
	if err := r.SetImage([]uint16{1, 2, 3, 4}, 2, 2, FilterNearest); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	_, w, h := r.Image()
	if w != 2 || h != 2 {
		t.Fatalf("Image dims: got %dx%d, want 2x2", w, h)
	}
	var sum uint32
	r.Histogram(func(b []uint32) {
		for _, v := range b {
			sum += v
		}
	})
	if sum != 4 {
		t.Fatalf("histogram sum: got %d, want 4", sum)
	}

	if err := r.SetHistogramBinCount(16); err != nil {
		t.Fatalf("SetHistogramBinCount: %v", err)
	}
	var n int
	r.Histogram(func(b []uint32) { n = len(b) })
	if n != 16 {
		t.Fatalf("bin array length: got %d, want 16", n)
	}
}

func TestSetImageRejectsBadSize(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.SetImage([]uint16{1, 2, 3}, 2, 2, FilterNearest); !errors.Is(err, ErrInvalidImageSize) {
		t.Fatalf("got %v, want ErrInvalidImageSize", err)
	}
	if err := r.SetImage([]uint16{1, 2}, -1, 2, FilterNearest); !errors.Is(err, ErrInvalidImageSize) {
		t.Fatalf("negative width: got %v, want ErrInvalidImageSize", err)
	}
}

func TestSetHistogramBinCountRejectsNonPositive(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.SetHistogramBinCount(0); !errors.Is(err, ErrInvalidBinCount) {
		t.Fatalf("got %v, want ErrInvalidBinCount", err)
	}
}

// TestHighlightedPixelReadback checks the draw's highlight round trip: the
// coordinate written back is the snap-corrected pixel that was asked for.
func TestHighlightedPixelReadback(t *testing.T) {
	r, _ := newTestRenderer(t)
	samples := make([]uint16, 16)
	if err := r.SetImage(samples, 4, 4, FilterNearest); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	p := defaultImagePanel()
	p.HighlightOn = true
	p.Highlight = [2]int{2, 1}
	r.SetImagePanel(p)
	if err := r.RequestUpdate(SurfaceImage); err != nil {
		t.Fatalf("RequestUpdate: %v", err)
	}
	r.drain()
	x, y, ok := r.HighlightedPixel()
	if !ok {
		t.Fatal("HighlightedPixel: got ok=false, want true")
	}
	if x != 2 || y != 1 {
		t.Fatalf("HighlightedPixel: got (%d, %d), want (2, 1)", x, y)
	}
}

// TestHighlightOffIgnoresCoordinate checks that a set highlight coordinate
// alone does nothing: only the HighlightOn flag, already combined by the
// embedder with pointer-over-image, arms the highlight path.
func TestHighlightOffIgnoresCoordinate(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.SetImage(make([]uint16, 16), 4, 4, FilterNearest); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	p := defaultImagePanel()
	p.Highlight = [2]int{2, 1}
	r.SetImagePanel(p)
	if err := r.RequestUpdate(SurfaceImage); err != nil {
		t.Fatalf("RequestUpdate: %v", err)
	}
	r.drain()
	if _, _, ok := r.HighlightedPixel(); ok {
		t.Fatal("HighlightedPixel: got ok=true with the highlight off")
	}
}

// TestCloseIsIdempotent checks that a second Close returns immediately.
func TestCloseIsIdempotent(t *testing.T) {
	r := New(native.New())
	if err := r.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
