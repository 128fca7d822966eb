package generator

import (
	"testing"

	"tilesplit/pkg/common"
)

func TestKeySet(t *testing.T) {
	ks := NewKeySet(4)
	if _, ok := ks.Max(); ok {
		t.Fatal("expected no max on empty set")
	}
	for _, k := range []common.TileID{9, 3, 7, 3, 1} {
		ks.Add(k)
	}
	if ks.Add(9) {
		t.Fatal("re-adding 9 should report not new")
	}
	if ks.Len() != 4 {
		t.Fatalf("Len=%d, want 4", ks.Len())
	}
	if !ks.Contains(7) || ks.Contains(8) {
		t.Fatal("contains mismatch")
	}
	if m, _ := ks.Max(); m != 9 {
		t.Fatalf("Max=%d, want 9", m)
	}
	got := ks.Slice()
	want := []common.TileID{1, 3, 7, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Slice=%v, want %v", got, want)
		}
	}
}
