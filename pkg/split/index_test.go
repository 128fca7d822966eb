package split

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"tilesplit/pkg/common"
)

var smallBoundaries = []common.TileID{1, 2, 5, 10, 15, 20, 30, 50}

// fixedGenerator hands out the boundaries it was given, numbered by position.
type fixedGenerator struct {
	keys []common.TileID
}

func (g fixedGenerator) Boundaries() ([]Entry, error) {
	entries := make([]Entry, len(g.keys))
	for i, k := range g.keys {
		entries[i] = Entry{Key: k, Partition: i}
	}
	return entries, nil
}

func (g fixedGenerator) Assignments() ([]Entry, error) {
	return g.Boundaries()
}

// randomGenerator holds n distinct random keys in ascending order.
type randomGenerator struct {
	fixedGenerator
}

func newRandomGenerator(rng *rand.Rand, n int) randomGenerator {
	seen := make(map[common.TileID]struct{}, n)
	keys := make([]common.TileID, 0, n)
	for len(keys) < n {
		k := common.TileID(rng.Int31())
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return randomGenerator{fixedGenerator{keys: keys}}
}

type errGenerator struct{ err error }

func (g errGenerator) Boundaries() ([]Entry, error)  { return nil, g.err }
func (g errGenerator) Assignments() ([]Entry, error) { return nil, g.err }

// linearFind is the reference oracle: first boundary >= key.
func linearFind(keys []common.TileID, key common.TileID) int {
	for i, k := range keys {
		if key <= k {
			return i
		}
	}
	return -1
}

func buildSmall(t *testing.T) *Index {
	t.Helper()
	idx := NewIndex()
	if err := idx.Build(fixedGenerator{keys: smallBoundaries}); err != nil {
		t.Fatalf("build: %v", err)
	}
	return idx
}

func TestBuild(t *testing.T) {
	idx := buildSmall(t)

	entries := idx.Entries()
	if len(entries) != len(smallBoundaries) {
		t.Fatalf("expected %d entries, got %d", len(smallBoundaries), len(entries))
	}
	for i, want := range smallBoundaries {
		if entries[i].Key != want {
			t.Errorf("entry %d: tile=%d, want %d", i, entries[i].Key, want)
		}
		if entries[i].Partition != i {
			t.Errorf("entry %d: partition=%d, want %d", i, entries[i].Partition, i)
		}
	}
}

func TestEntriesNotGenerated(t *testing.T) {
	idx := NewIndex()
	if idx.Entries() != nil {
		t.Fatalf("expected nil entries before build, got %v", idx.Entries())
	}
	if idx.Len() != 0 {
		t.Fatalf("expected Len 0 before build, got %d", idx.Len())
	}
}

func TestLen(t *testing.T) {
	idx := buildSmall(t)
	if idx.Len() != len(smallBoundaries) {
		t.Fatalf("Len=%d, want %d", idx.Len(), len(smallBoundaries))
	}
}

func TestBuildSortsUnorderedInput(t *testing.T) {
	shuffled := []common.TileID{30, 1, 50, 10, 2, 20, 5, 15}
	idx := NewIndex()
	if err := idx.Build(fixedGenerator{keys: shuffled}); err != nil {
		t.Fatalf("build: %v", err)
	}
	for i, e := range idx.Entries() {
		if e.Key != smallBoundaries[i] || e.Partition != i {
			t.Errorf("entry %d = %v, want tile %d partition %d", i, e, smallBoundaries[i], i)
		}
	}
}

func TestBuildRecomputesPartitions(t *testing.T) {
	g := fixedGenerator{keys: []common.TileID{100, 10, 1000}}
	idx := NewIndex()
	if err := idx.Build(g); err != nil {
		t.Fatalf("build: %v", err)
	}

	// The generator numbered 100 as partition 0; after sorting it is rank 1.
	e, err := idx.Lookup(100)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if e.Partition != 1 {
		t.Fatalf("expected rank partition 1 for tile 100, got %d", e.Partition)
	}

	raw, _ := g.Boundaries()
	if raw[0].Partition != 0 || raw[0].Key != 100 {
		t.Fatalf("build must not modify generator output, got %v", raw[0])
	}
}

func TestBuildInvalidGenerator(t *testing.T) {
	tests := []struct {
		name string
		keys []common.TileID
	}{
		{"empty", nil},
		{"negative", []common.TileID{5, -1, 10}},
		{"duplicate", []common.TileID{5, 10, 5}},
	}
	for _, tt := range tests {
		idx := NewIndex()
		err := idx.Build(fixedGenerator{keys: tt.keys})
		if !errors.Is(err, ErrInvalidGenerator) {
			t.Errorf("%s: expected ErrInvalidGenerator, got %v", tt.name, err)
		}
		if idx.Len() != 0 {
			t.Errorf("%s: failed build populated index with %d entries", tt.name, idx.Len())
		}
	}
}

func TestBuildGeneratorError(t *testing.T) {
	boom := errors.New("boom")
	err := NewIndex().Build(errGenerator{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected generator error to propagate, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	idx := buildSmall(t)
	rng := rand.New(rand.NewSource(1))

	maxKey := int64(smallBoundaries[len(smallBoundaries)-1])
	for i := 0; i < 1000; i++ {
		key := common.TileID(rng.Int63n(maxKey + 1))
		want := linearFind(smallBoundaries, key)

		e, err := idx.Lookup(key)
		if err != nil {
			t.Fatalf("lookup %d: %v", key, err)
		}
		if e.Partition != want {
			t.Fatalf("lookup %d: partition=%d, want %d", key, e.Partition, want)
		}
	}
}

func TestLookupBoundaries(t *testing.T) {
	idx := buildSmall(t)
	tests := []struct {
		key  common.TileID
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 2},
		{5, 2},
		{6, 3},
		{49, 7},
		{50, 7},
	}
	for _, tt := range tests {
		part, err := idx.Partition(tt.key)
		if err != nil {
			t.Fatalf("Partition(%d): %v", tt.key, err)
		}
		if part != tt.want {
			t.Errorf("Partition(%d)=%d, want %d", tt.key, part, tt.want)
		}
	}
}

func TestLookupOutOfRange(t *testing.T) {
	idx := buildSmall(t)
	for _, key := range []common.TileID{51, 1000, -1} {
		if _, err := idx.Lookup(key); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Lookup(%d): expected ErrOutOfRange, got %v", key, err)
		}
	}
}

func TestLookupNotGenerated(t *testing.T) {
	_, err := NewIndex().Lookup(10)
	if !errors.Is(err, ErrNotGenerated) {
		t.Fatalf("expected ErrNotGenerated, got %v", err)
	}
	if !IsDataError(err) {
		t.Fatalf("expected ErrNotGenerated to count as a data error")
	}
}

func TestLookupManyPartitions(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	g := newRandomGenerator(rng, 10000)

	idx := NewIndex()
	if err := idx.Build(g); err != nil {
		t.Fatalf("build: %v", err)
	}
	if idx.Len() != 10000 {
		t.Fatalf("Len=%d, want 10000", idx.Len())
	}
	for i, e := range idx.Entries() {
		if e.Key != g.keys[i] || e.Partition != i {
			t.Fatalf("entry %d = %v, want tile %d partition %d", i, e, g.keys[i], i)
		}
	}

	maxKey := int64(g.keys[len(g.keys)-1])
	for i := 0; i < 10000; i++ {
		key := common.TileID(rng.Int63n(maxKey + 1))
		want := linearFind(g.keys, key)
		part, err := idx.Partition(key)
		if err != nil {
			t.Fatalf("Partition(%d): %v", key, err)
		}
		if part != want {
			t.Fatalf("Partition(%d)=%d, want %d", key, part, want)
		}
	}
}

func TestConcurrentLookup(t *testing.T) {
	idx := buildSmall(t)
	done := make(chan error, 8)
	for w := 0; w < 8; w++ {
		go func(seed int64) {
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 500; i++ {
				key := common.TileID(rng.Int63n(51))
				part, err := idx.Partition(key)
				if err != nil {
					done <- err
					return
				}
				if part != linearFind(smallBoundaries, key) {
					done <- errors.New("partition mismatch")
					return
				}
			}
			done <- nil
		}(int64(w))
	}
	for w := 0; w < 8; w++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent lookup: %v", err)
		}
	}
}

func newTestRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
