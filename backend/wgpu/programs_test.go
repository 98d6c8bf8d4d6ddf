package wgpu

import "testing"

// TestUniformCacheSkipsRedundantUploads checks the dirty tracking behind
// conditional uniform writes.
func TestUniformCacheSkipsRedundantUploads(t *testing.T) {
	var c uniformCache
	first := []byte{1, 2, 3, 4}
	if !c.update(first) {
		t.Fatal("first update: got false, want true")
	}
	if c.update([]byte{1, 2, 3, 4}) {
		t.Fatal("identical update: got true, want false")
	}
	if !c.update([]byte{1, 2, 3, 5}) {
		t.Fatal("changed update: got false, want true")
	}
	if c.update([]byte{1, 2, 3, 5}) {
		t.Fatal("repeat of changed bytes: got true, want false")
	}
}

// TestUniformCacheCopiesInput checks that the cache does not alias the
// caller's scratch slice.
func TestUniformCacheCopiesInput(t *testing.T) {
	var c uniformCache
	scratch := []byte{9, 9}
	c.update(scratch)
	scratch[0] = 1
	if c.update([]byte{9, 9}) {
		t.Fatal("cache aliased the caller's slice")
	}
}
