package gpucore

// Resource IDs
//
// These opaque IDs represent backend resources. Each adapter implementation
// maintains a mapping between IDs and actual GPU objects. IDs are uint64 to
// accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// InvalidID is the zero value, representing an invalid/null resource.
// Adapters never hand out zero for a live resource; callers that need to
// model presence explicitly should carry their own boolean rather than
// compare against this.
const InvalidID = 0

// SurfaceID identifies one of the coordinator's output surfaces.
type SurfaceID int

// Output surfaces.
const (
	// SurfaceImage is the main image display surface.
	SurfaceImage SurfaceID = iota

	// SurfaceHistogram is the histogram plot surface.
	SurfaceHistogram

	// NumSurfaces is the number of output surfaces.
	NumSurfaces
)

// String returns the surface name for logging.
func (s SurfaceID) String() string {
	switch s {
	case SurfaceImage:
		return "image"
	case SurfaceHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Valid reports whether s names an existing surface.
func (s SurfaceID) Valid() bool { return s >= 0 && s < NumSurfaces }

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageMapRead indicates the buffer can be mapped for reading.
	BufferUsageMapRead BufferUsage = 1 << 0

	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 1

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 2

	// BufferUsageVertex indicates the buffer can be used as a vertex buffer.
	BufferUsageVertex BufferUsage = 1 << 3

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 4

	// BufferUsageStorage indicates the buffer can be used as a storage buffer.
	BufferUsageStorage BufferUsage = 1 << 5
)

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatR16Uint is the 16-bit single-channel unsigned integer
	// format carrying scientific image samples.
	TextureFormatR16Uint TextureFormat = iota + 1

	// TextureFormatBGRA8Unorm is the 8-bit BGRA render target format.
	TextureFormatBGRA8Unorm
)

// FilterMode selects how the image texture is sampled when scaled.
type FilterMode uint32

// Filter modes.
const (
	// FilterNearest snaps to the nearest texel.
	FilterNearest FilterMode = iota

	// FilterLinear interpolates between neighboring texels.
	FilterLinear
)

// Histogram dispatch geometry. Both compute passes launch a
// BlockGridDim × BlockGridDim grid of workgroups, each running
// LocalInvocationDim × LocalInvocationDim invocations. The host derives the
// per-invocation region and bin strides from these constants, so changing
// them here keeps host and shader code in agreement.
const (
	// BlockGridDim is the number of workgroups launched per axis.
	BlockGridDim = 8

	// LocalInvocationDim is the number of invocations per workgroup per axis.
	LocalInvocationDim = 4

	// BlockCount is the number of partial histograms produced by the block
	// pass, one per workgroup.
	BlockCount = BlockGridDim * BlockGridDim

	// AxisInvocations is the total invocation count along one image axis.
	AxisInvocations = BlockGridDim * LocalInvocationDim
)

// ExtremaBufferSize is the byte size of the consolidation extrema buffer:
// two uint32 values, the minimum and maximum consolidated bin count.
const ExtremaBufferSize = 8

// HighlightBufferSize is the byte size of the image draw highlight buffer:
// the wanted normalized coordinate (two float32) followed by the actual
// snap-corrected coordinate written back by the draw (two float32).
const HighlightBufferSize = 16

// HighlightActualOffset is the byte offset of the actual coordinate pair
// within the highlight buffer.
const HighlightActualOffset = 8
