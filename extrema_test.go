package scopeview

import "testing"

func TestScanExtrema(t *testing.T) {
	tests := []struct {
		name    string
		samples []uint16
		want    Extrema
	}{
		{"mixed", []uint16{10, 5, 5, 20}, Extrema{Min: 5, Max: 20}},
		{"single sample", []uint16{42}, Extrema{Min: 42, Max: 42}},
		{"all equal", []uint16{777, 777, 777, 777}, Extrema{Min: 777, Max: 777}},
		{"all zero", []uint16{0, 0, 0}, Extrema{Min: 0, Max: 0}},
		{"full range", []uint16{65535, 0}, Extrema{Min: 0, Max: 65535}},
		{"descending", []uint16{9, 7, 3, 1}, Extrema{Min: 1, Max: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scanExtrema(tt.samples); got != tt.want {
				t.Fatalf("got (%d, %d), want (%d, %d)",
					got.Min, got.Max, tt.want.Min, tt.want.Max)
			}
		})
	}
}

// TestExtremaFutureCompletes checks that the asynchronous scan publishes
// its result before closing done.
func TestExtremaFutureCompletes(t *testing.T) {
	fut := launchExtremaScan([]uint16{3, 1, 4, 1, 5}, 7)
	<-fut.done
	if fut.ext.Min != 1 || fut.ext.Max != 5 {
		t.Fatalf("got (%d, %d), want (1, 5)", fut.ext.Min, fut.ext.Max)
	}
	if fut.gen != 7 {
		t.Fatalf("gen: got %d, want 7", fut.gen)
	}
}
