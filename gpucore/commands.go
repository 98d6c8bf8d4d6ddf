package gpucore

// ColorVariant selects the image draw colorization path. The four variants
// correspond to the cross product of gamma-transform rescaling and pixel
// highlighting.
type ColorVariant uint32

// Colorization variants.
const (
	// ColorPlain maps samples straight to grayscale.
	ColorPlain ColorVariant = iota

	// ColorPlainHighlight is ColorPlain plus highlighted-pixel inversion.
	ColorPlainHighlight

	// ColorGamma rescales samples into [Min, Max] and applies the gamma
	// exponent before grayscale mapping.
	ColorGamma

	// ColorGammaHighlight is ColorGamma plus highlighted-pixel inversion.
	ColorGammaHighlight
)

// Highlighted reports whether the variant inverts the highlighted pixel.
func (v ColorVariant) Highlighted() bool {
	return v == ColorPlainHighlight || v == ColorGammaHighlight
}

// BlockHistogramCmd describes the first histogram pass. Each of the
// BlockGridDim² workgroups accumulates a partial histogram over its share of
// the image into its own BinCount-element slice of Blocks.
type BlockHistogramCmd struct {
	// Image is the R16Uint source texture.
	Image TextureID

	// Blocks is the zeroed partial histogram buffer,
	// BlockCount × BinCount uint32 elements.
	Blocks BufferID

	// ImageSize is the source width and height in texels.
	ImageSize [2]int

	// BinCount is the histogram resolution.
	BinCount int

	// RegionSize is the per-invocation pixel region, per axis:
	// ceil(imageDim / AxisInvocations).
	RegionSize [2]int
}

// ConsolidateCmd describes the second histogram pass: summing the partial
// block histograms into the 1D histogram while atomically tracking the
// minimum and maximum consolidated bin count in Extrema.
type ConsolidateCmd struct {
	// Blocks is the filled partial histogram buffer from the block pass.
	Blocks BufferID

	// Histogram is the zeroed BinCount-element uint32 destination buffer.
	Histogram BufferID

	// Extrema is an ExtremaBufferSize buffer pre-seeded with
	// {0xFFFFFFFF, 0}.
	Extrema BufferID

	// BinCount is the histogram resolution.
	BinCount int

	// InvocationBinCount is the number of bins each invocation folds:
	// ceil(BinCount / LocalInvocationDim²).
	InvocationBinCount int
}

// ImageDrawCmd describes one presentation of the image surface.
type ImageDrawCmd struct {
	// Viewport is the surface size in pixels.
	Viewport [2]int

	// ClearColor is the RGBA background, premultiplied not required
	// (opaque clears only).
	ClearColor [4]float32

	// Image is the R16Uint source texture.
	Image TextureID

	// ImageSize is the source width and height in texels.
	ImageSize [2]int

	// Filter selects nearest or linear sampling.
	Filter FilterMode

	// PMV is the column-major projection·model·view matrix mapping the
	// unit quad into clip space.
	PMV [16]float32

	// Variant selects the colorization path.
	Variant ColorVariant

	// Min and Max bound the gamma-transform rescale in sample units
	// (0..65535). Only read by the gamma variants.
	Min, Max float32

	// Gamma is the rescale exponent. Only read by the gamma variants.
	Gamma float32

	// Highlight is the HighlightBufferSize storage buffer holding the
	// wanted normalized coordinate; the draw writes the actual
	// snap-corrected coordinate at HighlightActualOffset. Only bound by the
	// highlight variants.
	Highlight BufferID
}

// HistogramDrawCmd describes one presentation of the histogram surface:
// a line strip through the bin curve followed by one 4-pixel point per bin.
type HistogramDrawCmd struct {
	// Viewport is the surface size in pixels.
	Viewport [2]int

	// ClearColor is the RGBA background.
	ClearColor [4]float32

	// Histogram is the consolidated BinCount-element uint32 buffer.
	Histogram BufferID

	// Vertices is the float32 vertex buffer of ascending bin indices.
	Vertices BufferID

	// BinCount is the histogram resolution.
	BinCount int

	// BinScale is the maximum consolidated bin count; bin heights are
	// normalized by it before the gamma curve.
	BinScale uint32

	// Gamma is the display gamma exponent applied to normalized heights.
	Gamma float32

	// PMV is the column-major projection·model·view matrix (identity for
	// the standard plot).
	PMV [16]float32
}
