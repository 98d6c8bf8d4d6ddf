package scopeview

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/gogpu/scopeview/gpucore"
)

// Everything in this file runs on the coordinator goroutine. Shared state
// is snapshotted under r.mu; resourceSet and the highlight write cache are
// touched by no one else.

func (r *Renderer) serviceUpdate(s SurfaceID) {
	r.mu.Lock()
	if !r.pending[s] {
		r.mu.Unlock()
		return
	}
	r.pending[s] = false
	r.mu.Unlock()

	var err error
	switch s {
	case gpucore.SurfaceImage:
		err = r.execImageDraw()
	case gpucore.SurfaceHistogram:
		err = r.execHistogramDraw()
	}
	if err != nil {
		slogger().Warn("surface update failed", "surface", s, "err", err)
	}
}

func (r *Renderer) handleNewImage(img *imageState) error {
	r.mu.Lock()
	old := r.image
	r.image = img
	if img == nil {
		r.hlActualValid = false
	}
	r.mu.Unlock()

	// The image texture and block buffer track the image dimensions, so
	// they only come down when the image goes away or changes size. The
	// consolidated histogram buffer is sized by bin count and survives.
	if old != nil && (img == nil || old.width != img.width || old.height != img.height) {
		r.res.blocks.release(r.adapter)
		r.res.image.release(r.adapter)
	}
	if img != nil {
		id, err := r.res.image.ensure(r.adapter, img.width, img.height)
		if err == nil {
			err = r.adapter.WriteTexture(id, img.texelBytes())
		}
		if err == nil {
			err = r.computeHistogram(img)
		}
		if err != nil {
			return fmt.Errorf("scopeview: image upload: %w", err)
		}
	}
	if err := r.execImageDraw(); err != nil {
		slogger().Warn("image draw failed", "err", err)
	}
	if err := r.execHistogramDraw(); err != nil {
		slogger().Warn("histogram draw failed", "err", err)
	}
	return nil
}

func (r *Renderer) handleBinCount(n int) error {
	r.mu.Lock()
	if n == r.binCount {
		r.mu.Unlock()
		return nil
	}
	r.binCount = n
	r.histData = make([]uint32, n)
	r.histMax = 0
	img := r.image
	r.mu.Unlock()

	r.res.histoVerts.release(r.adapter)
	r.res.histogram.release(r.adapter)
	r.res.blocks.release(r.adapter)

	if img == nil {
		return nil
	}
	if err := r.computeHistogram(img); err != nil {
		return fmt.Errorf("scopeview: histogram recompute: %w", err)
	}
	if err := r.execHistogramDraw(); err != nil {
		slogger().Warn("histogram draw failed", "err", err)
	}
	return nil
}

// computeHistogram runs the two compute passes for the current image and
// reads the consolidated bins and bin extrema back into shared state.
func (r *Renderer) computeHistogram(img *imageState) error {
	r.mu.Lock()
	binCount := r.binCount
	r.mu.Unlock()
	a := r.adapter

	blocks, _, err := r.res.blocks.ensure(a,
		gpucore.BlockCount*binCount*4,
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	if err := a.ZeroBuffer(blocks); err != nil {
		return err
	}
	if err := a.DispatchBlockHistogram(&gpucore.BlockHistogramCmd{
		Image:      r.res.image.id,
		Blocks:     blocks,
		ImageSize:  [2]int{img.width, img.height},
		BinCount:   binCount,
		RegionSize: [2]int{ceilDiv(img.width, gpucore.AxisInvocations), ceilDiv(img.height, gpucore.AxisInvocations)},
	}); err != nil {
		return err
	}

	hist, _, err := r.res.histogram.ensure(a, binCount*4,
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc|gpucore.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	if err := a.ZeroBuffer(hist); err != nil {
		return err
	}
	ext, err := r.res.ensureExtrema(a)
	if err != nil {
		return err
	}
	if err := a.DispatchConsolidate(&gpucore.ConsolidateCmd{
		Blocks:             blocks,
		Histogram:          hist,
		Extrema:            ext,
		BinCount:           binCount,
		InvocationBinCount: ceilDiv(binCount, gpucore.LocalInvocationDim*gpucore.LocalInvocationDim),
	}); err != nil {
		return err
	}

	raw := make([]byte, binCount*4)
	if err := a.ReadBuffer(hist, 0, raw); err != nil {
		return err
	}
	extRaw := make([]byte, gpucore.ExtremaBufferSize)
	if err := a.ReadBuffer(ext, 0, extRaw); err != nil {
		return err
	}
	maxBin := binary.LittleEndian.Uint32(extRaw[4:])

	r.mu.Lock()
	if len(r.histData) == binCount {
		for i := range r.histData {
			r.histData[i] = binary.LittleEndian.Uint32(raw[i*4:])
		}
		r.histMax = maxBin
	}
	r.mu.Unlock()
	slogger().Debug("histogram computed", "bins", binCount, "max", maxBin)
	return nil
}

func (r *Renderer) execImageDraw() error {
	r.mu.Lock()
	surf := r.surf[gpucore.SurfaceImage]
	img := r.image
	panel := r.imgPanel
	r.mu.Unlock()
	if surf.viewW <= 0 || surf.viewH <= 0 {
		return nil
	}
	a := r.adapter
	if err := a.ConfigureSurface(gpucore.SurfaceImage, surf.viewW, surf.viewH); err != nil {
		return err
	}
	cmd := gpucore.ImageDrawCmd{
		Viewport:   [2]int{surf.viewW, surf.viewH},
		ClearColor: surf.clear.array(),
		PMV:        identityMat4(),
		Max:        65535,
		Gamma:      1,
	}
	if img == nil {
		if err := a.DrawImage(&cmd); err != nil {
			return err
		}
		return a.Present(gpucore.SurfaceImage)
	}

	viewAspect := float32(surf.viewW) / float32(surf.viewH)
	if panel.Fit {
		cmd.PMV = fitTransform(img.aspect(), viewAspect)
	} else {
		cmd.PMV = manualTransform(img.aspect(), img.height, surf.viewW, surf.viewH,
			ClampZoom(panel.Zoom), panel.Pan)
	}

	switch {
	case panel.GammaEnabled && panel.HighlightOn:
		cmd.Variant = gpucore.ColorGammaHighlight
	case panel.GammaEnabled:
		cmd.Variant = gpucore.ColorGamma
	case panel.HighlightOn:
		cmd.Variant = gpucore.ColorPlainHighlight
	default:
		cmd.Variant = gpucore.ColorPlain
	}

	cmd.Min, cmd.Max, cmd.Gamma = panel.Min, panel.Max, panel.Gamma
	if panel.GammaEnabled && panel.AutoMinMax {
		if ext, ok := r.waitExtrema(); ok {
			cmd.Min, cmd.Max = float32(ext.Min), float32(ext.Max)
		}
	}

	cmd.Image = r.res.image.id
	cmd.ImageSize = [2]int{img.width, img.height}
	cmd.Filter = img.filter

	if cmd.Variant.Highlighted() {
		hl, created, err := r.res.ensureHighlight(a)
		if err != nil {
			return err
		}
		wanted := [2]float32{
			-(float32(panel.Highlight[0]) / float32(img.width)) + 1,
			-(float32(panel.Highlight[1]) / float32(img.height)) + 1,
		}
		if created || !r.wantedValid || wanted != r.lastWanted {
			var buf [8]byte
			binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(wanted[0]))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(wanted[1]))
			if err := a.WriteBuffer(hl, 0, buf[:]); err != nil {
				return err
			}
			r.lastWanted = wanted
			r.wantedValid = true
		}
		cmd.Highlight = hl
	}

	if err := a.DrawImage(&cmd); err != nil {
		return err
	}

	if cmd.Variant.Highlighted() {
		var buf [8]byte
		if err := a.ReadBuffer(cmd.Highlight, gpucore.HighlightActualOffset, buf[:]); err != nil {
			return err
		}
		ax := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:]))
		ay := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:]))
		// Invert actual = -((i+0.5)/size)+1 back to the texel index.
		px := int(math32.Floor((1 - ax) * float32(img.width)))
		py := int(math32.Floor((1 - ay) * float32(img.height)))
		r.mu.Lock()
		r.hlActual = [2]int{px, py}
		r.hlActualValid = true
		r.mu.Unlock()
	}
	return a.Present(gpucore.SurfaceImage)
}

func (r *Renderer) execHistogramDraw() error {
	r.mu.Lock()
	surf := r.surf[gpucore.SurfaceHistogram]
	hasImage := r.image != nil
	binCount := r.binCount
	binScale := r.histMax
	gamma := r.histPanel.Gamma
	r.mu.Unlock()
	if surf.viewW <= 0 || surf.viewH <= 0 {
		return nil
	}
	a := r.adapter
	if err := a.ConfigureSurface(gpucore.SurfaceHistogram, surf.viewW, surf.viewH); err != nil {
		return err
	}
	cmd := gpucore.HistogramDrawCmd{
		Viewport:   [2]int{surf.viewW, surf.viewH},
		ClearColor: surf.clear.array(),
		PMV:        identityMat4(),
		Gamma:      1,
	}
	if !hasImage {
		if err := a.DrawHistogram(&cmd); err != nil {
			return err
		}
		return a.Present(gpucore.SurfaceHistogram)
	}
	verts, err := r.res.ensureHistoVerts(a, binCount)
	if err != nil {
		return err
	}
	cmd.Histogram = r.res.histogram.id
	cmd.Vertices = verts
	cmd.BinCount = binCount
	cmd.BinScale = binScale
	cmd.Gamma = gamma
	if err := a.DrawHistogram(&cmd); err != nil {
		return err
	}
	return a.Present(gpucore.SurfaceHistogram)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
