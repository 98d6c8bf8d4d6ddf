package scopeview

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/scopeview/gpucore"
)

// FilterMode selects how the image is sampled when scaled. Re-exported from
// gpucore so embedders rarely need that package directly.
type FilterMode = gpucore.FilterMode

// Filter modes.
const (
	FilterNearest = gpucore.FilterNearest
	FilterLinear  = gpucore.FilterLinear
)

// imageState is an owned snapshot of the current image. The samples slice
// is a defensive copy made by SetImage; the extrema prefetcher scans it and
// the coordinator uploads it, so nothing external may alias it.
type imageState struct {
	samples []uint16
	width   int
	height  int
	filter  FilterMode
}

// newImageState validates and copies the caller's samples. Empty input
// (nil or zero-length) produces nil, meaning "no image".
func newImageState(samples []uint16, width, height int, filter FilterMode) (*imageState, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidImageSize, width, height)
	}
	if len(samples) != width*height {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", ErrInvalidImageSize, len(samples), width, height)
	}
	img := &imageState{
		samples: make([]uint16, len(samples)),
		width:   width,
		height:  height,
		filter:  filter,
	}
	copy(img.samples, samples)
	return img, nil
}

// texelBytes returns the samples as tightly packed little-endian bytes for
// texture upload.
func (img *imageState) texelBytes() []byte {
	out := make([]byte, len(img.samples)*2)
	for i, s := range img.samples {
		binary.LittleEndian.PutUint16(out[i*2:], s)
	}
	return out
}

func (img *imageState) aspect() float32 {
	return float32(img.width) / float32(img.height)
}
