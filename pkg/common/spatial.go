package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MaxZoom keeps both TMS and Morton ids inside a non-negative int64.
const MaxZoom = 31

var ErrTileBounds = errors.New("tile coordinate out of bounds for zoom")

// TileIDFor numbers tiles row-major from the lower-left corner: ty*2^zoom + tx.
func TileIDFor(tx, ty uint32, zoom int) (TileID, error) {
	if zoom < 0 || zoom > MaxZoom {
		return 0, errors.New("zoom out of range")
	}
	width := uint64(1) << uint(zoom)
	if uint64(tx) >= width || uint64(ty) >= width {
		return 0, ErrTileBounds
	}
	return TileID(uint64(ty)*width + uint64(tx)), nil
}

// TileXY is the inverse of TileIDFor.
func TileXY(id TileID, zoom int) (tx, ty uint32) {
	width := int64(1) << uint(zoom)
	return uint32(int64(id) % width), uint32(int64(id) / width)
}

// Numbering selects how a tile coordinate becomes a TileID. Both schemes map
// zoom z onto [0, 4^z), so split boundaries work for either.
type Numbering int

const (
	RowMajor Numbering = iota
	Morton
)

func ParseNumbering(s string) (Numbering, error) {
	switch strings.ToLower(s) {
	case "", "tms", "row", "rowmajor":
		return RowMajor, nil
	case "morton", "z", "zorder":
		return Morton, nil
	}
	return RowMajor, fmt.Errorf("unknown tile numbering %q", s)
}

func (n Numbering) String() string {
	if n == Morton {
		return "morton"
	}
	return "tms"
}

// TileID numbers (tx, ty) at zoom under n.
func (n Numbering) TileID(tx, ty uint32, zoom int) (TileID, error) {
	if n != Morton {
		return TileIDFor(tx, ty, zoom)
	}
	if zoom < 0 || zoom > MaxZoom {
		return 0, errors.New("zoom out of range")
	}
	width := uint64(1) << uint(zoom)
	if uint64(tx) >= width || uint64(ty) >= width {
		return 0, ErrTileBounds
	}
	return MortonTileID(tx, ty)
}

// XY is the inverse of TileID.
func (n Numbering) XY(id TileID, zoom int) (tx, ty uint32) {
	if n == Morton {
		return DecodeMorton(id)
	}
	return TileXY(id, zoom)
}

func Part1By1(n uint32) uint64 {
	x := uint64(n)
	x = (x | (x << 16)) & 0x0000ffff0000ffff
	x = (x | (x << 8)) & 0x00ff00ff00ff00ff
	x = (x | (x << 4)) & 0x0f0f0f0f0f0f0f0f
	x = (x | (x << 2)) & 0x3333333333333333
	x = (x | (x << 1)) & 0x5555555555555555
	return x
}

func Compact1By1(x uint64) uint32 {
	x &= 0x5555555555555555
	x = (x | (x >> 1)) & 0x3333333333333333
	x = (x | (x >> 2)) & 0x0f0f0f0f0f0f0f0f
	x = (x | (x >> 4)) & 0x00ff00ff00ff00ff
	x = (x | (x >> 8)) & 0x0000ffff0000ffff
	x = (x | (x >> 16)) & 0x00000000ffffffff
	return uint32(x)
}

// MortonTileID interleaves tile x (even bits) and y (odd bits) so that tiles
// close on the map get close ids.
func MortonTileID(tx, ty uint32) (TileID, error) {
	if tx >= 1<<MaxZoom || ty >= 1<<MaxZoom {
		return 0, ErrTileBounds
	}
	return TileID(Part1By1(ty)<<1 | Part1By1(tx)), nil
}

func DecodeMorton(id TileID) (tx, ty uint32) {
	k := uint64(id)
	return Compact1By1(k), Compact1By1(k >> 1)
}

type ZRange struct {
	Min TileID
	Max TileID
}

// GetZRanges decomposes an inclusive tile box at the given zoom into the
// contiguous Morton id ranges that cover it exactly.
func GetZRanges(minX, minY, maxX, maxY uint32, zoom int) ([]ZRange, error) {
	if zoom < 0 || zoom > MaxZoom {
		return nil, errors.New("zoom out of range")
	}
	if minX > maxX || minY > maxY {
		return nil, errors.New("invalid bounding box")
	}
	side := uint64(1) << uint(zoom)
	if uint64(maxX) >= side || uint64(maxY) >= side {
		return nil, ErrTileBounds
	}

	var ranges []ZRange
	decompose(0, 0, side,
		uint64(minX), uint64(minY), uint64(maxX), uint64(maxY),
		0, &ranges)

	return mergeRanges(ranges), nil
}

func decompose(cx, cy, size uint64, tx1, ty1, tx2, ty2 uint64, zStart int64, acc *[]ZRange) {
	if cx+size <= tx1 || cx > tx2 || cy+size <= ty1 || cy > ty2 {
		return
	}

	if cx >= tx1 && cx+size <= tx2+1 && cy >= ty1 && cy+size <= ty2+1 {
		*acc = append(*acc, ZRange{Min: TileID(zStart), Max: TileID(zStart + int64(size*size) - 1)})
		return
	}

	half := size / 2
	if half == 0 {
		*acc = append(*acc, ZRange{Min: TileID(zStart), Max: TileID(zStart)})
		return
	}

	step := int64(half * half)

	// 00 (x, y)
	decompose(cx, cy, half, tx1, ty1, tx2, ty2, zStart, acc)
	// 01 (x+, y)
	decompose(cx+half, cy, half, tx1, ty1, tx2, ty2, zStart+step, acc)
	// 10 (x, y+)
	decompose(cx, cy+half, half, tx1, ty1, tx2, ty2, zStart+step*2, acc)
	// 11 (x+, y+)
	decompose(cx+half, cy+half, half, tx1, ty1, tx2, ty2, zStart+step*3, acc)
}

// mergeRanges joins adjacent ranges.
func mergeRanges(ranges []ZRange) []ZRange {
	if len(ranges) == 0 {
		return ranges
	}
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].Min < ranges[j].Min
	})

	var merged []ZRange
	curr := ranges[0]

	for i := 1; i < len(ranges); i++ {
		next := ranges[i]
		if curr.Max+1 == next.Min {
			curr.Max = next.Max
		} else {
			merged = append(merged, curr)
			curr = next
		}
	}
	merged = append(merged, curr)
	return merged
}

// InRange reports whether a Morton id lies inside the inclusive tile box.
func InRange(id TileID, minX, minY, maxX, maxY uint32) bool {
	x, y := DecodeMorton(id)
	return x >= minX && x <= maxX &&
		y >= minY && y <= maxY
}
