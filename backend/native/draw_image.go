package native

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/scopeview/gpucore"
)

// DrawImage renders the image surface: clear, then the colorized image quad
// under the PMV transform, then the highlighted-texel inversion. An invalid
// Image ID clears only.
func (a *Adapter) DrawImage(cmd *gpucore.ImageDrawCmd) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	dst := a.surfaces[gpucore.SurfaceImage].pixmap
	if dst == nil {
		return fmt.Errorf("native: draw image: %w", errNoSurface)
	}
	clearPixmap(dst, cmd.ClearColor)
	if cmd.Image == gpucore.InvalidID {
		return nil
	}
	img, ok := a.textures[cmd.Image]
	if !ok {
		return fmt.Errorf("native: draw image: %w: texture %d", errUnknownResource, cmd.Image)
	}
	if img.width != cmd.ImageSize[0] || img.height != cmd.ImageSize[1] {
		return fmt.Errorf("native: draw image: size %dx%d does not match texture %dx%d",
			cmd.ImageSize[0], cmd.ImageSize[1], img.width, img.height)
	}

	shaded := shadeImage(img, cmd)
	aff := quadTransform(cmd.PMV, img.width, img.height, dst.Rect.Dx(), dst.Rect.Dy())
	interp := draw.Interpolator(draw.NearestNeighbor)
	if cmd.Filter == gpucore.FilterLinear {
		interp = draw.BiLinear
	}
	interp.Transform(dst, aff, shaded, shaded.Bounds(), draw.Src, nil)

	if cmd.Variant.Highlighted() && cmd.Highlight != gpucore.InvalidID {
		if err := a.applyHighlight(dst, img, cmd, aff); err != nil {
			return err
		}
	}
	return nil
}

// shadeImage maps the R16Uint samples to grayscale through a per-draw
// lookup table covering the full 16-bit range.
func shadeImage(img *texture, cmd *gpucore.ImageDrawCmd) *image.RGBA {
	var lut [65536]uint8
	switch cmd.Variant {
	case gpucore.ColorGamma, gpucore.ColorGammaHighlight:
		span := cmd.Max - cmd.Min
		for v := range lut {
			if span <= 0 {
				if float32(v) >= cmd.Max {
					lut[v] = 0xFF
				}
				continue
			}
			t := (float32(v) - cmd.Min) / span
			t = math32.Min(math32.Max(t, 0), 1)
			lut[v] = uint8(math32.Pow(t, cmd.Gamma)*255 + 0.5)
		}
	default:
		for v := range lut {
			lut[v] = uint8(v >> 8)
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, img.width, img.height))
	for i, s := range img.texels {
		g := lut[s]
		p := out.Pix[i*4:]
		p[0] = g
		p[1] = g
		p[2] = g
		p[3] = 0xFF
	}
	return out
}

// quadTransform converts the column-major PMV into the affine source→view
// pixel mapping. Every transform the coordinator builds is a diagonal scale
// plus translation, so only m[0], m[5], m[12] and m[13] carry information;
// the unit quad's Y axis flips between image rows and clip space.
func quadTransform(pmv [16]float32, imgW, imgH, viewW, viewH int) f64.Aff3 {
	sx := float64(pmv[0])
	sy := float64(pmv[5])
	tx := float64(pmv[12])
	ty := float64(pmv[13])
	vw := float64(viewW)
	vh := float64(viewH)
	return f64.Aff3{
		sx * vw / float64(imgW), 0, (tx + 1 - sx) * vw / 2,
		0, sy * vh / float64(imgH), (1 - sy - ty) * vh / 2,
	}
}

// applyHighlight inverts the texel named by the highlight buffer's wanted
// coordinate and writes the snap-corrected actual coordinate back.
func (a *Adapter) applyHighlight(dst *image.RGBA, img *texture, cmd *gpucore.ImageDrawCmd, aff f64.Aff3) error {
	hl, ok := a.buffers[cmd.Highlight]
	if !ok {
		return fmt.Errorf("native: draw image: %w: highlight buffer %d", errUnknownResource, cmd.Highlight)
	}
	if len(hl.words) < 4 {
		return fmt.Errorf("native: draw image: highlight buffer has %d words, want 4", len(hl.words))
	}
	wantX := math.Float32frombits(hl.words[0])
	wantY := math.Float32frombits(hl.words[1])

	// Wanted coordinates arrive normalized and flipped: n = -(c/size)+1.
	ix := snapTexel((1-wantX)*float32(img.width), img.width)
	iy := snapTexel((1-wantY)*float32(img.height), img.height)

	x0, y0 := applyAff(aff, float64(ix), float64(iy))
	x1, y1 := applyAff(aff, float64(ix+1), float64(iy+1))
	rect := image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)), int(math.Ceil(y1)))
	rect = rect.Intersect(dst.Rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			i := dst.PixOffset(x, y)
			dst.Pix[i] = 0xFF - dst.Pix[i]
			dst.Pix[i+1] = 0xFF - dst.Pix[i+1]
			dst.Pix[i+2] = 0xFF - dst.Pix[i+2]
		}
	}

	actualX := -(float32(ix) + 0.5) / float32(img.width) + 1
	actualY := -(float32(iy) + 0.5) / float32(img.height) + 1
	hl.words[2] = math.Float32bits(actualX)
	hl.words[3] = math.Float32bits(actualY)
	return nil
}

func snapTexel(c float32, dim int) int {
	i := int(math32.Floor(c))
	if i < 0 {
		return 0
	}
	if i >= dim {
		return dim - 1
	}
	return i
}

func applyAff(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

func clearPixmap(p *image.RGBA, c [4]float32) {
	fill := color.RGBA{
		R: uint8(clamp01(c[0])*255 + 0.5),
		G: uint8(clamp01(c[1])*255 + 0.5),
		B: uint8(clamp01(c[2])*255 + 0.5),
		A: uint8(clamp01(c[3])*255 + 0.5),
	}
	draw.Draw(p, p.Rect, image.NewUniform(fill), image.Point{}, draw.Src)
}

func clamp01(v float32) float32 {
	return math32.Min(math32.Max(v, 0), 1)
}
