package partition

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"tilesplit/pkg/common"
	"tilesplit/pkg/generator"
	"tilesplit/pkg/split"
)

var routeBoundaries = []common.TileID{1, 2, 5, 10, 15, 20, 30, 50}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	idx := split.NewIndex()
	if err := idx.Build(generator.NewFixed(routeBoundaries)); err != nil {
		t.Fatalf("build: %v", err)
	}
	r, err := NewRouter(idx)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return r
}

func TestNewRouterRequiresIndex(t *testing.T) {
	if _, err := NewRouter(split.NewIndex()); !errors.Is(err, split.ErrNotGenerated) {
		t.Fatalf("expected ErrNotGenerated, got %v", err)
	}
}

func TestNewRouterRejectsBadPartitionFile(t *testing.T) {
	for _, in := range []string{
		"2\n5 0\n9 -3\n",
		"1\n5 3000000000000\n",
		"2\n5 0\n9 2\n",
	} {
		idx := split.NewIndex()
		if _, err := idx.ReadFrom(strings.NewReader(in)); !errors.Is(err, split.ErrMalformed) {
			t.Fatalf("ReadFrom(%q): expected ErrMalformed, got %v", in, err)
		}
		if _, err := NewRouter(idx); !errors.Is(err, split.ErrNotGenerated) {
			t.Fatalf("router over rejected file %q: expected ErrNotGenerated, got %v", in, err)
		}
	}

	// duplicate partition numbers are in range and route normally
	idx := split.NewIndex()
	if _, err := idx.ReadFrom(strings.NewReader("2\n5 1\n9 1\n")); err != nil {
		t.Fatalf("read: %v", err)
	}
	r, err := NewRouter(idx)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	if r.Partitions() != 2 {
		t.Fatalf("Partitions=%d, want 2", r.Partitions())
	}
	if p, err := r.Partition(3); err != nil || p != 1 {
		t.Fatalf("Partition(3)=%d,%v want 1", p, err)
	}
}

func TestRouterPartitionStats(t *testing.T) {
	r := newTestRouter(t)
	if r.Partitions() != len(routeBoundaries) {
		t.Fatalf("Partitions=%d", r.Partitions())
	}
	if p, err := r.Partition(12); err != nil || p != 4 {
		t.Fatalf("Partition(12)=%d,%v want 4", p, err)
	}
	if _, err := r.Partition(51); !errors.Is(err, split.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	snap := r.Stats().Snapshot()
	if snap["lookups"].(uint64) != 2 || snap["routed"].(uint64) != 1 || snap["out_of_range"].(uint64) != 1 {
		t.Fatalf("unexpected stats %v", snap)
	}
}

func TestRoute(t *testing.T) {
	r := newTestRouter(t)

	in := make(chan common.Record)
	go func() {
		defer close(in)
		for k := common.TileID(0); k <= 60; k++ {
			in <- common.Record{Key: k}
		}
	}()

	res, err := r.Route(context.Background(), in, 4)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if res.Routed() != 51 || len(res.Rejected) != 10 {
		t.Fatalf("routed=%d rejected=%d, want 51/10", res.Routed(), len(res.Rejected))
	}
	for _, rej := range res.Rejected {
		if !errors.Is(rej.Err, split.ErrOutOfRange) {
			t.Fatalf("unexpected rejection %v", rej.Err)
		}
	}

	for part, bucket := range res.Buckets {
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].Key < bucket[j].Key })
		lo := common.TileID(0)
		if part > 0 {
			lo = routeBoundaries[part-1] + 1
		}
		hi := routeBoundaries[part]
		if len(bucket) != int(hi-lo+1) {
			t.Fatalf("bucket %d holds %d records, want %d", part, len(bucket), hi-lo+1)
		}
		for _, rec := range bucket {
			if rec.Key < lo || rec.Key > hi {
				t.Fatalf("tile %d in bucket %d outside (%d,%d]", rec.Key, part, lo-1, hi)
			}
		}
	}
}

type sliceSource struct {
	recs []common.Record
	pos  int
	err  error
}

func (s *sliceSource) Next() bool {
	if s.pos >= len(s.recs) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceSource) Record() common.Record { return s.recs[s.pos-1] }
func (s *sliceSource) Err() error            { return s.err }

func TestRouteSource(t *testing.T) {
	r := newTestRouter(t)
	src := &sliceSource{recs: []common.Record{{Key: 0}, {Key: 3}, {Key: 50}, {Key: 77}}}

	res, err := r.RouteSource(context.Background(), src, 2)
	if err != nil {
		t.Fatalf("route source: %v", err)
	}
	if len(res.Buckets[0]) != 1 || len(res.Buckets[2]) != 1 || len(res.Buckets[7]) != 1 {
		t.Fatalf("unexpected buckets %v", res.Buckets)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].Record.Key != 77 {
		t.Fatalf("unexpected rejected %v", res.Rejected)
	}

	boom := errors.New("source failed")
	_, err = r.RouteSource(context.Background(), &sliceSource{err: boom}, 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestRouteCancelled(t *testing.T) {
	r := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := make(chan common.Record)
	_, err := r.Route(ctx, in, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCover(t *testing.T) {
	r := newTestRouter(t)

	parts, overflow := r.Cover([]common.ZRange{{Min: 0, Max: 0}, {Min: 3, Max: 12}, {Min: 45, Max: 60}})
	want := []int{0, 2, 3, 4, 7}
	if !overflow {
		t.Error("expected overflow for range past 50")
	}
	if len(parts) != len(want) {
		t.Fatalf("Cover=%v, want %v", parts, want)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Fatalf("Cover=%v, want %v", parts, want)
		}
	}

	if parts, overflow := r.Cover([]common.ZRange{{Min: 60, Max: 70}}); len(parts) != 0 || !overflow {
		t.Fatalf("range above table: parts=%v overflow=%v", parts, overflow)
	}
}

func TestCoverMatchesBoxLookups(t *testing.T) {
	r := newTestRouter(t)
	const zoom = 3
	minX, minY, maxX, maxY := uint32(1), uint32(2), uint32(5), uint32(6)

	ranges, err := common.GetZRanges(minX, minY, maxX, maxY, zoom)
	if err != nil {
		t.Fatalf("GetZRanges: %v", err)
	}
	parts, overflow := r.Cover(ranges)

	want := make(map[int]bool)
	wantOverflow := false
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			id, _ := common.Morton.TileID(x, y, zoom)
			p, err := r.Partition(id)
			if errors.Is(err, split.ErrOutOfRange) {
				wantOverflow = true
				continue
			}
			want[p] = true
		}
	}
	if overflow != wantOverflow {
		t.Errorf("overflow=%v, want %v", overflow, wantOverflow)
	}
	if len(parts) != len(want) || !sort.IntsAreSorted(parts) {
		t.Fatalf("Cover=%v, want set %v", parts, want)
	}
	for _, p := range parts {
		if !want[p] {
			t.Fatalf("Cover returned partition %d not owning any box tile", p)
		}
	}
}
