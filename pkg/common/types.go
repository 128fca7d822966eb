package common

import "fmt"

// TileID identifies one tile of a tiled raster or vector pyramid. Valid ids
// are non-negative.
type TileID int64

// ValueType is the opaque payload stored with a tile.
type ValueType []byte

// Record is the unit read from a tile store and routed to a partition.
type Record struct {
	Key   TileID
	Value ValueType
}

func (r *Record) String() string {
	return fmt.Sprintf("Record{Tile: %d, ValLen: %d}", r.Key, len(r.Value))
}
