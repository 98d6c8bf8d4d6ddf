package scopeview

import "github.com/gogpu/scopeview/gpucore"

// SurfaceID identifies one of the renderer's output surfaces. Re-exported
// from gpucore.
type SurfaceID = gpucore.SurfaceID

// Output surfaces.
const (
	SurfaceImage     = gpucore.SurfaceImage
	SurfaceHistogram = gpucore.SurfaceHistogram
)

// RGBA is a normalized clear color.
type RGBA struct {
	R, G, B, A float32
}

func (c RGBA) array() [4]float32 { return [4]float32{c.R, c.G, c.B, c.A} }

// ImagePanelState carries the externally controlled display state of the
// image surface. Snapshot semantics: the renderer copies it under its lock
// and uses the copy for subsequent draws.
type ImagePanelState struct {
	// Fit scales the image to the view, preserving aspect ratio. When
	// false, Zoom and Pan apply.
	Fit bool

	// Zoom is the manual zoom factor; it is clamped to [MinZoom, MaxZoom]
	// at draw time.
	Zoom float32

	// Pan is the manual pan offset in view pixels.
	Pan [2]float32

	// GammaEnabled turns on min/max rescaling with the Gamma exponent.
	GammaEnabled bool

	// AutoMinMax sources Min and Max from the image extrema instead of the
	// fields below.
	AutoMinMax bool

	// Min and Max bound the rescale in sample units (0..65535).
	Min, Max float32

	// Gamma is the rescale exponent.
	Gamma float32

	// Highlight names the image pixel to invert when HighlightOn is set.
	Highlight [2]int

	// HighlightOn enables the highlight. Explicit flag, so the zero
	// coordinate stays a valid pixel. The embedder sets it to the
	// conjunction of its highlight toggle and the pointer being over the
	// image; the renderer never second-guesses the combination.
	HighlightOn bool
}

/// defaultImagePanel mirrors a freshly opened viewer: fit, full range,
// neutral gamma.
func defaultImagePanel() ImagePanelState {
	return ImagePanelState{
		Fit:   true,
		Zoom:  ZoomPreset(DefaultZoomPreset),
		Min:   0,
		Max:   65535,
		Gamma: 1,
	}
}

// HistogramPanelState carries the externally controlled display state of
// the histogram surface.
type HistogramPanelState struct {
	// Gamma is the display exponent applied to normalized bin heights.
	Gamma float32
}

func defaultHistogramPanel() HistogramPanelState {
	return HistogramPanelState{Gamma: 1}
}

// surfaceState is the per-surface view bookkeeping guarded by the renderer
// lock.
type surfaceState struct {
	viewW, viewH int
	clear        RGBA
}
