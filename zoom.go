package scopeview

import "github.com/chewxy/math32"

// Zoom model. The viewer offers a fixed preset ladder plus free-form zoom;
// a preset index of -1 denotes a custom value between rungs.

// zoomPresets is the preset ladder, descending.
var zoomPresets = []float32{
	10, 8, 7, 6, 5, 4, 3, 2, 1.5, 1, 0.75, 0.6666666, 0.5, 0.333333, 0.25, 0.1,
}

// DefaultZoomPreset is the index of the 1:1 preset.
const DefaultZoomPreset = 9

// Zoom bounds for free-form zooming.
const (
	MinZoom float32 = 0.001
	MaxZoom float32 = 10000.0
)

// ZoomPresetCount returns the number of preset rungs.
func ZoomPresetCount() int { return len(zoomPresets) }

// ZoomPreset returns the zoom factor for a preset index. Indices outside
// the ladder clamp to its ends.
func ZoomPreset(i int) float32 {
	if i < 0 {
		i = 0
	}
	if i >= len(zoomPresets) {
		i = len(zoomPresets) - 1
	}
	return zoomPresets[i]
}

// ClampZoom bounds a free-form zoom factor to [MinZoom, MaxZoom].
func ClampZoom(z float32) float32 {
	return math32.Min(math32.Max(z, MinZoom), MaxZoom)
}

// NearestZoomPreset returns the index of the preset closest to z, or -1
// when z is not within a relative epsilon of any rung (a custom zoom).
func NearestZoomPreset(z float32) int {
	const eps = 1e-4
	for i, p := range zoomPresets {
		if math32.Abs(z-p) <= eps*p {
			return i
		}
	}
	return -1
}
