package native

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"

	"github.com/gogpu/scopeview/gpucore"
)

// histogram plot color: light gray, readable on the dark default clear.
const plotGray = 0xE0

// DrawHistogram renders the histogram surface: clear, then the bin curve as
// a line strip followed by a 4-pixel point per bin. An invalid Histogram ID
// clears only.
func (a *Adapter) DrawHistogram(cmd *gpucore.HistogramDrawCmd) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	dst := a.surfaces[gpucore.SurfaceHistogram].pixmap
	if dst == nil {
		return fmt.Errorf("native: draw histogram: %w", errNoSurface)
	}
	clearPixmap(dst, cmd.ClearColor)
	if cmd.Histogram == gpucore.InvalidID {
		return nil
	}
	hist, ok := a.buffers[cmd.Histogram]
	if !ok {
		return fmt.Errorf("native: draw histogram: %w: buffer %d", errUnknownResource, cmd.Histogram)
	}
	if cmd.BinCount <= 0 || len(hist.words) < cmd.BinCount {
		return fmt.Errorf("native: draw histogram: histogram buffer has %d words, want %d", len(hist.words), cmd.BinCount)
	}

	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	scale := float32(cmd.BinScale)
	if scale <= 0 {
		scale = 1
	}

	// Vertex positions match the GPU path: x from the ascending bin index,
	// y from the gamma-curved normalized bin count.
	px := make([]int, cmd.BinCount)
	py := make([]int, cmd.BinCount)
	for i := 0; i < cmd.BinCount; i++ {
		t := float32(hist.words[i]) / scale
		t = math32.Min(math32.Max(t, 0), 1)
		y := math32.Pow(t, cmd.Gamma)
		px[i] = i * (w - 1) / max(cmd.BinCount-1, 1)
		py[i] = (h - 1) - int(y*float32(h-1)+0.5)
	}
	for i := 1; i < cmd.BinCount; i++ {
		drawLine(dst, px[i-1], py[i-1], px[i], py[i])
	}
	for i := 0; i < cmd.BinCount; i++ {
		drawPoint(dst, px[i], py[i])
	}
	return nil
}

// drawLine draws a 1-pixel line with the integer midpoint algorithm.
func drawLine(dst *image.RGBA, x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	errv := dx + dy
	for {
		setGray(dst, x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errv
		if e2 >= dy {
			errv += dy
			x0 += sx
		}
		if e2 <= dx {
			errv += dx
			y0 += sy
		}
	}
}

// drawPoint draws the 4-pixel-wide bin marker.
func drawPoint(dst *image.RGBA, x, y int) {
	for py := y - 2; py < y+2; py++ {
		for px := x - 2; px < x+2; px++ {
			setGray(dst, px, py)
		}
	}
}

func setGray(dst *image.RGBA, x, y int) {
	if !(image.Point{X: x, Y: y}).In(dst.Rect) {
		return
	}
	i := dst.PixOffset(x, y)
	dst.Pix[i] = plotGray
	dst.Pix[i+1] = plotGray
	dst.Pix[i+2] = plotGray
	dst.Pix[i+3] = 0xFF
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
