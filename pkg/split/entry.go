package split

import (
	"fmt"

	"tilesplit/pkg/common"
)

// Entry pairs the inclusive upper tile bound of a key range with the
// partition that owns it.
type Entry struct {
	Key       common.TileID
	Partition int
}

func (e Entry) String() string {
	return fmt.Sprintf("Entry{Tile: %d, Partition: %d}", e.Key, e.Partition)
}

// Generator produces the raw entries an Index is built from. Boundaries
// enumerates boundary definitions, Assignments the partition assignments; for
// a well-formed dataset both return the same entries. Neither is required to
// be sorted.
type Generator interface {
	Boundaries() ([]Entry, error)
	Assignments() ([]Entry, error)
}
