package scopeview

import "testing"

func TestZoomPresetClamps(t *testing.T) {
	if got := ZoomPreset(-3); got != 10 {
		t.Fatalf("below ladder: got %g, want 10", got)
	}
	if got := ZoomPreset(ZoomPresetCount() + 5); got != 0.1 {
		t.Fatalf("above ladder: got %g, want 0.1", got)
	}
	if got := ZoomPreset(DefaultZoomPreset); got != 1 {
		t.Fatalf("default preset: got %g, want 1", got)
	}
}

func TestClampZoom(t *testing.T) {
	if got := ClampZoom(0); got != MinZoom {
		t.Fatalf("zero: got %g, want %g", got, MinZoom)
	}
	if got := ClampZoom(1e9); got != MaxZoom {
		t.Fatalf("huge: got %g, want %g", got, MaxZoom)
	}
	if got := ClampZoom(2.5); got != 2.5 {
		t.Fatalf("in range: got %g, want 2.5", got)
	}
}

func TestNearestZoomPreset(t *testing.T) {
	for i := 0; i < ZoomPresetCount(); i++ {
		if got := NearestZoomPreset(ZoomPreset(i)); got != i {
			t.Fatalf("preset %d: got index %d", i, got)
		}
	}
	if got := NearestZoomPreset(1.23); got != -1 {
		t.Fatalf("custom zoom: got %d, want -1", got)
	}
}
