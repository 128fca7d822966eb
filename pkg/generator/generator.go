// Package generator provides split.Generator implementations: a fixed list,
// an even division of a key range, and equal-count cuts over observed tiles.
package generator

import (
	"errors"
	"fmt"
	"log"

	"tilesplit/pkg/common"
	"tilesplit/pkg/split"
)

// Fixed serves a caller-supplied boundary list, numbered by position.
type Fixed struct {
	keys []common.TileID
}

func NewFixed(keys []common.TileID) Fixed {
	return Fixed{keys: keys}
}

func (f Fixed) Boundaries() ([]split.Entry, error) {
	entries := make([]split.Entry, len(f.keys))
	for i, k := range f.keys {
		entries[i] = split.Entry{Key: k, Partition: i}
	}
	return entries, nil
}

func (f Fixed) Assignments() ([]split.Entry, error) {
	return f.Boundaries()
}

// Even divides [0, maxKey] into contiguous ranges whose sizes differ by at
// most one.
type Even struct {
	partitions int
	maxKey     common.TileID
}

func NewEven(partitions int, maxKey common.TileID) Even {
	return Even{partitions: partitions, maxKey: maxKey}
}

// NewEvenForZoom covers every TMS tile id at zoom.
func NewEvenForZoom(partitions, zoom int) (Even, error) {
	if zoom < 0 || zoom > common.MaxZoom {
		return Even{}, fmt.Errorf("zoom %d out of range", zoom)
	}
	return NewEven(partitions, MaxTileID(zoom)), nil
}

// MaxTileID is the largest TMS tile id at zoom.
func MaxTileID(zoom int) common.TileID {
	return common.TileID(int64(1)<<uint(2*zoom) - 1)
}

func (e Even) Boundaries() ([]split.Entry, error) {
	if e.partitions <= 0 {
		return nil, errors.New("partition count must be positive")
	}
	if e.maxKey < 0 {
		return nil, errors.New("max tile must be non-negative")
	}

	span := int64(e.maxKey) + 1
	parts := int64(e.partitions)
	if parts > span {
		parts = span
	}
	width, rem := span/parts, span%parts

	entries := make([]split.Entry, parts)
	for i := int64(0); i < parts; i++ {
		extra := i + 1
		if extra > rem {
			extra = rem
		}
		entries[i] = split.Entry{Key: common.TileID((i+1)*width + extra - 1), Partition: int(i)}
	}
	return entries, nil
}

func (e Even) Assignments() ([]split.Entry, error) {
	return e.Boundaries()
}

// Sampled cuts the observed tile ids into equal-count partitions. Ids may be
// hash sampled to bound memory; the largest id seen is always kept as the
// last boundary so no observed tile falls out of range.
type Sampled struct {
	partitions int
	keys       *KeySet
	sampler    *Sampler
	maxSeen    common.TileID
	seen       int
	ceiling    common.TileID
}

func NewSampled(partitions int, rate float64) *Sampled {
	return &Sampled{
		partitions: partitions,
		keys:       NewKeySet(32),
		sampler:    NewSampler(rate),
		maxSeen:    -1,
		ceiling:    -1,
	}
}

// WithCeiling stretches the last partition up to ceiling, e.g. the last tile
// id of a zoom level, so tiles added later still route.
func (s *Sampled) WithCeiling(ceiling common.TileID) *Sampled {
	s.ceiling = ceiling
	return s
}

// Add is not safe for concurrent use.
func (s *Sampled) Add(key common.TileID) {
	if key < 0 {
		return
	}
	s.seen++
	if key > s.maxSeen {
		s.maxSeen = key
	}
	if s.sampler.Keep(key) {
		s.keys.Add(key)
	}
}

// Seen counts every non-negative id passed to Add, sampled or not.
func (s *Sampled) Seen() int {
	return s.seen
}

func (s *Sampled) Kept() int {
	return s.keys.Len()
}

func (s *Sampled) Boundaries() ([]split.Entry, error) {
	if s.partitions <= 0 {
		return nil, errors.New("partition count must be positive")
	}
	keys := s.keys.Slice()
	if s.maxSeen >= 0 && (len(keys) == 0 || keys[len(keys)-1] < s.maxSeen) {
		keys = append(keys, s.maxSeen)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	n := len(keys)
	parts := s.partitions
	if parts > n {
		parts = n
	}

	entries := make([]split.Entry, 0, parts)
	for i := 1; i <= parts; i++ {
		// last key of the i-th equal-count slice
		pos := (i*n+parts-1)/parts - 1
		entries = append(entries, split.Entry{Key: keys[pos], Partition: i - 1})
	}
	if last := &entries[len(entries)-1]; s.ceiling > last.Key {
		last.Key = s.ceiling
	}
	return entries, nil
}

func (s *Sampled) Assignments() ([]split.Entry, error) {
	return s.Boundaries()
}

// KeySource is any ordered source of tile ids, such as a tile store.
type KeySource interface {
	Keys(fn func(key common.TileID) bool) error
}

// FromStore feeds every id of src into a Sampled generator.
func FromStore(src KeySource, partitions int, rate float64) (*Sampled, error) {
	s := NewSampled(partitions, rate)
	if err := src.Keys(func(key common.TileID) bool {
		s.Add(key)
		return true
	}); err != nil {
		return nil, fmt.Errorf("scan tile ids: %w", err)
	}
	log.Printf("[Generator] Scanned %d tiles, sampled %d (rate %.3f) for %d partitions",
		s.Seen(), s.Kept(), s.sampler.Rate(), partitions)
	return s, nil
}
