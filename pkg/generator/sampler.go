package generator

import (
	"encoding/binary"
	"math"

	"tilesplit/pkg/common"

	"github.com/cespare/xxhash/v2"
)

// Sampler keeps a deterministic fraction of tile ids. The decision depends
// only on the id, so every worker sampling the same dataset agrees.
type Sampler struct {
	rate      float64
	threshold uint64
}

// NewSampler keeps roughly rate of all ids. A rate <= 0 or >= 1 keeps all.
func NewSampler(rate float64) *Sampler {
	if rate <= 0 || rate >= 1 {
		return &Sampler{rate: 1, threshold: math.MaxUint64}
	}
	return &Sampler{rate: rate, threshold: uint64(rate * math.MaxUint64)}
}

func (s *Sampler) Rate() float64 {
	return s.rate
}

func (s *Sampler) Keep(key common.TileID) bool {
	if s.threshold == math.MaxUint64 {
		return true
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))
	return xxhash.Sum64(buf[:]) < s.threshold
}
