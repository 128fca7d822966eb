package common

import "testing"

func TestTileIDForRoundTrip(t *testing.T) {
	tests := []struct {
		tx, ty uint32
		zoom   int
		want   TileID
	}{
		{0, 0, 0, 0},
		{1, 0, 1, 1},
		{0, 1, 1, 2},
		{3, 2, 2, 11},
		{1<<20 - 1, 1<<20 - 1, 20, (1<<20)*(1<<20) - 1},
	}
	for _, tt := range tests {
		id, err := TileIDFor(tt.tx, tt.ty, tt.zoom)
		if err != nil {
			t.Fatalf("TileIDFor(%d,%d,%d): %v", tt.tx, tt.ty, tt.zoom, err)
		}
		if id != tt.want {
			t.Errorf("TileIDFor(%d,%d,%d)=%d, want %d", tt.tx, tt.ty, tt.zoom, id, tt.want)
		}
		x, y := TileXY(id, tt.zoom)
		if x != tt.tx || y != tt.ty {
			t.Errorf("TileXY(%d,%d)=(%d,%d), want (%d,%d)", id, tt.zoom, x, y, tt.tx, tt.ty)
		}
	}
}

func TestTileIDForBounds(t *testing.T) {
	if _, err := TileIDFor(4, 0, 2); err == nil {
		t.Fatal("expected error for tx outside zoom 2")
	}
	if _, err := TileIDFor(0, 0, MaxZoom+1); err == nil {
		t.Fatal("expected error for zoom above MaxZoom")
	}
}

func TestMortonRoundTrip(t *testing.T) {
	coords := [][2]uint32{{0, 0}, {1, 0}, {0, 1}, {5, 9}, {1<<MaxZoom - 1, 1<<MaxZoom - 1}}
	for _, c := range coords {
		id, err := MortonTileID(c[0], c[1])
		if err != nil {
			t.Fatalf("MortonTileID(%d,%d): %v", c[0], c[1], err)
		}
		if id < 0 {
			t.Fatalf("MortonTileID(%d,%d) negative: %d", c[0], c[1], id)
		}
		x, y := DecodeMorton(id)
		if x != c[0] || y != c[1] {
			t.Errorf("DecodeMorton(%d)=(%d,%d), want (%d,%d)", id, x, y, c[0], c[1])
		}
	}
	if id, _ := MortonTileID(1, 1); id != 3 {
		t.Errorf("MortonTileID(1,1)=%d, want 3", id)
	}
}

func TestGetZRangesCoversBox(t *testing.T) {
	const zoom = 4
	minX, minY, maxX, maxY := uint32(3), uint32(2), uint32(9), uint32(6)

	ranges, err := GetZRanges(minX, minY, maxX, maxY, zoom)
	if err != nil {
		t.Fatalf("GetZRanges: %v", err)
	}

	covered := 0
	for i, r := range ranges {
		if r.Min > r.Max {
			t.Fatalf("range %d inverted: %+v", i, r)
		}
		if i > 0 && ranges[i-1].Max+1 >= r.Min {
			t.Fatalf("ranges %d and %d not merged or overlapping: %+v %+v", i-1, i, ranges[i-1], r)
		}
		for id := r.Min; id <= r.Max; id++ {
			if !InRange(id, minX, minY, maxX, maxY) {
				t.Fatalf("tile %d outside box", id)
			}
			covered++
		}
	}
	want := int((maxX - minX + 1) * (maxY - minY + 1))
	if covered != want {
		t.Errorf("covered %d tiles, want %d", covered, want)
	}
}

func TestGetZRangesWholeWorld(t *testing.T) {
	ranges, err := GetZRanges(0, 0, 7, 7, 3)
	if err != nil {
		t.Fatalf("GetZRanges: %v", err)
	}
	if len(ranges) != 1 || ranges[0].Min != 0 || ranges[0].Max != 63 {
		t.Errorf("expected single range [0,63], got %+v", ranges)
	}
	if _, err := GetZRanges(2, 0, 1, 0, 3); err == nil {
		t.Error("expected error for inverted box")
	}
}

func TestNumbering(t *testing.T) {
	for _, s := range []string{"", "tms", "morton", "Z"} {
		if _, err := ParseNumbering(s); err != nil {
			t.Errorf("ParseNumbering(%q): %v", s, err)
		}
	}
	if _, err := ParseNumbering("hilbert"); err == nil {
		t.Fatal("expected error for unknown numbering")
	}

	const zoom = 3
	maxID := TileID(1<<(2*zoom) - 1)
	for _, n := range []Numbering{RowMajor, Morton} {
		seen := make(map[TileID]bool)
		for x := uint32(0); x < 1<<zoom; x++ {
			for y := uint32(0); y < 1<<zoom; y++ {
				id, err := n.TileID(x, y, zoom)
				if err != nil {
					t.Fatalf("%s TileID(%d,%d): %v", n, x, y, err)
				}
				if id < 0 || id > maxID || seen[id] {
					t.Fatalf("%s TileID(%d,%d)=%d outside [0,%d] or repeated", n, x, y, id, maxID)
				}
				seen[id] = true
				if gx, gy := n.XY(id, zoom); gx != x || gy != y {
					t.Fatalf("%s XY(%d)=(%d,%d), want (%d,%d)", n, id, gx, gy, x, y)
				}
			}
		}
		if _, err := n.TileID(1<<zoom, 0, zoom); err == nil {
			t.Fatalf("%s: expected bounds error", n)
		}
	}
}
