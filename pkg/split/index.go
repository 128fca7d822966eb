package split

import (
	"fmt"
	"sort"

	"tilesplit/pkg/common"
)

// Index is a sorted boundary table. It is filled once by Build or ReadFrom
// and is read-only afterwards, so Lookup, Len and Entries need no locking.
type Index struct {
	entries []Entry
}

func NewIndex() *Index {
	return &Index{}
}

// Build sorts the generator's boundaries by key and numbers the partitions
// 0..n-1 in that order. Partition numbers supplied by the generator are
// ignored.
func (idx *Index) Build(g Generator) error {
	raw, err := g.Boundaries()
	if err != nil {
		return fmt.Errorf("split: generator boundaries: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: no boundaries", ErrInvalidGenerator)
	}

	entries := make([]Entry, len(raw))
	copy(entries, raw)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})

	for i := range entries {
		if entries[i].Key < 0 {
			return fmt.Errorf("%w: negative boundary %d", ErrInvalidGenerator, entries[i].Key)
		}
		if i > 0 && entries[i].Key == entries[i-1].Key {
			return fmt.Errorf("%w: duplicate boundary %d", ErrInvalidGenerator, entries[i].Key)
		}
		entries[i].Partition = i
	}

	idx.entries = entries
	return nil
}

// Len returns 0 for an index that was never populated.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Entries returns the table in ascending key order, or nil before population.
// The slice is shared and must not be modified.
func (idx *Index) Entries() []Entry {
	return idx.entries
}

// Lookup finds the entry with the smallest boundary >= key, i.e. the
// partition whose range (previous boundary, boundary] holds key.
func (idx *Index) Lookup(key common.TileID) (Entry, error) {
	if len(idx.entries) == 0 {
		return Entry{}, ErrNotGenerated
	}
	if key < 0 {
		return Entry{}, fmt.Errorf("%w: negative tile %d", ErrOutOfRange, key)
	}

	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].Key >= key
	})
	if i == len(idx.entries) {
		return Entry{}, fmt.Errorf("%w: tile %d above max boundary %d",
			ErrOutOfRange, key, idx.entries[len(idx.entries)-1].Key)
	}
	return idx.entries[i], nil
}

// Partition is Lookup reduced to the partition number.
func (idx *Index) Partition(key common.TileID) (int, error) {
	e, err := idx.Lookup(key)
	if err != nil {
		return -1, err
	}
	return e.Partition, nil
}
