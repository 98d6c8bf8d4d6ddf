package scopeview

import (
	"errors"
	"testing"
)

func TestNewImageState(t *testing.T) {
	img, err := newImageState([]uint16{1, 2, 3, 4, 5, 6}, 3, 2, FilterLinear)
	if err != nil {
		t.Fatalf("newImageState: %v", err)
	}
	if img.width != 3 || img.height != 2 {
		t.Fatalf("dims: got %dx%d, want 3x2", img.width, img.height)
	}
	if img.filter != FilterLinear {
		t.Fatalf("filter: got %v, want FilterLinear", img.filter)
	}
}

// TestNewImageStateEmpty checks that empty samples mean "no image", not an
// error.
func TestNewImageStateEmpty(t *testing.T) {
	img, err := newImageState(nil, 0, 0, FilterNearest)
	if err != nil {
		t.Fatalf("newImageState: %v", err)
	}
	if img != nil {
		t.Fatal("got an image state, want nil")
	}
}

func TestNewImageStateValidation(t *testing.T) {
	tests := []struct {
		name    string
		samples []uint16
		w, h    int
	}{
		{"length mismatch", []uint16{1, 2, 3}, 2, 2},
		{"zero width", []uint16{1, 2}, 0, 2},
		{"negative height", []uint16{1, 2}, 2, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newImageState(tt.samples, tt.w, tt.h, FilterNearest); !errors.Is(err, ErrInvalidImageSize) {
				t.Fatalf("got %v, want ErrInvalidImageSize", err)
			}
		})
	}
}

func TestImageStateCopiesSamples(t *testing.T) {
	samples := []uint16{5, 6}
	img, err := newImageState(samples, 2, 1, FilterNearest)
	if err != nil {
		t.Fatalf("newImageState: %v", err)
	}
	samples[0] = 99
	if img.samples[0] != 5 {
		t.Fatalf("sample 0: got %d, want 5", img.samples[0])
	}
}

func TestTexelBytesLittleEndian(t *testing.T) {
	img, err := newImageState([]uint16{0x0102, 0xFFEE}, 2, 1, FilterNearest)
	if err != nil {
		t.Fatalf("newImageState: %v", err)
	}
	got := img.texelBytes()
	want := []byte{0x02, 0x01, 0xEE, 0xFF}
	if len(got) != len(want) {
		t.Fatalf("length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestImageAspect(t *testing.T) {
	img, err := newImageState(make([]uint16, 8), 4, 2, FilterNearest)
	if err != nil {
		t.Fatalf("newImageState: %v", err)
	}
	if got := img.aspect(); got != 2 {
		t.Fatalf("aspect: got %g, want 2", got)
	}
}
