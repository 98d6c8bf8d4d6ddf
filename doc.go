// Package scopeview is the rendering core of a scientific image viewer:
// a single 16-bit grayscale image surface plus a live histogram surface,
// driven by one update-coordinator goroutine over a pluggable GPU backend.
//
// The Renderer owns all GPU state. Embedders feed it images and per-surface
// panel state (zoom, pan, gamma rescale, highlight), request surface
// updates, and read back the consolidated histogram and image extrema:
//
//	r := scopeview.New(native.New())
//	if err := r.Init(); err != nil { ... }
//	defer r.Close()
//
//	r.SetViewSize(scopeview.SurfaceImage, 800, 600)
//	if err := r.SetImage(samples, w, h, scopeview.FilterNearest); err != nil { ... }
//	r.RequestUpdate(scopeview.SurfaceImage)
//
// Two backends are provided: backend/native, a pure Go implementation that
// mirrors the GPU dispatch geometry with goroutines and atomics, and
// backend/wgpu, which runs the same four pipelines on a wgpu/hal device.
//
// Redundant update requests for a surface coalesce into one draw. Histogram
// computation runs in two GPU passes (per-block partial histograms, then an
// atomic consolidation that also tracks the maximum bin count), while image
// extrema are prefetched asynchronously on the CPU so the first auto-ranged
// draw of a new image can block on an exact result.
package scopeview
