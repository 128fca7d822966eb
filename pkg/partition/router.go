// Package partition routes tile records to the partitions of a split index.
package partition

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"tilesplit/pkg/common"
	"tilesplit/pkg/monitor"
	"tilesplit/pkg/split"
)

// Router answers partition lookups against a populated index. The index is
// never modified, so one Router can serve any number of goroutines.
type Router struct {
	idx        *split.Index
	partitions int
	stats      *monitor.RouteStats
}

func NewRouter(idx *split.Index) (*Router, error) {
	if idx.Len() == 0 {
		return nil, split.ErrNotGenerated
	}
	n := idx.Len()
	for _, e := range idx.Entries() {
		if e.Partition < 0 || e.Partition >= n {
			return nil, fmt.Errorf("%w: partition %d for tile %d outside [0, %d)", split.ErrMalformed, e.Partition, e.Key, n)
		}
	}
	return &Router{
		idx:        idx,
		partitions: n,
		stats:      monitor.NewRouteStats(),
	}, nil
}

func (r *Router) Index() *split.Index {
	return r.idx
}

// Partitions is the number of output buckets.
func (r *Router) Partitions() int {
	return r.partitions
}

func (r *Router) Stats() *monitor.RouteStats {
	return r.stats
}

func (r *Router) Lookup(key common.TileID) (split.Entry, error) {
	r.stats.RecordLookup()
	e, err := r.idx.Lookup(key)
	switch {
	case err == nil:
		r.stats.RecordRouted()
	case errors.Is(err, split.ErrOutOfRange):
		r.stats.RecordOutOfRange()
	default:
		r.stats.RecordFailure()
	}
	return e, err
}

func (r *Router) Partition(key common.TileID) (int, error) {
	e, err := r.Lookup(key)
	if err != nil {
		return -1, err
	}
	return e.Partition, nil
}

// Cover lists, in ascending order, the partitions owning any tile of ranges,
// e.g. the Morton ranges of a map box. overflow is set when part of a range
// lies above the last boundary.
func (r *Router) Cover(ranges []common.ZRange) (parts []int, overflow bool) {
	entries := r.idx.Entries()
	last := entries[len(entries)-1].Key
	hit := make(map[int]bool)

	for _, zr := range ranges {
		if zr.Max < 0 || zr.Min > zr.Max {
			continue
		}
		if zr.Max > last {
			overflow = true
		}
		lo := sort.Search(len(entries), func(i int) bool { return entries[i].Key >= zr.Min })
		hi := sort.Search(len(entries), func(i int) bool { return entries[i].Key >= zr.Max })
		if hi == len(entries) {
			hi--
		}
		for i := lo; i <= hi; i++ {
			hit[entries[i].Partition] = true
		}
	}

	for p := range hit {
		parts = append(parts, p)
	}
	sort.Ints(parts)
	return parts, overflow
}

type Rejected struct {
	Record common.Record
	Err    error
}

// Result holds one bucket per partition. Order inside a bucket is not
// defined when more than one worker ran.
type Result struct {
	Buckets  [][]common.Record
	Rejected []Rejected
}

func (res *Result) Routed() int {
	n := 0
	for _, b := range res.Buckets {
		n += len(b)
	}
	return n
}

// Route drains in across workers goroutines. It returns when in is closed or
// ctx is done; in the latter case the partial result is returned with
// ctx.Err().
func (r *Router) Route(ctx context.Context, in <-chan common.Record, workers int) (*Result, error) {
	if workers <= 0 {
		workers = 1
	}

	type routed struct {
		rec  common.Record
		part int
		err  error
	}
	out := make(chan routed, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case rec, ok := <-in:
					if !ok {
						return
					}
					part, err := r.Partition(rec.Key)
					select {
					case out <- routed{rec: rec, part: part, err: err}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	res := &Result{Buckets: make([][]common.Record, r.partitions)}
	for o := range out {
		if o.err != nil {
			res.Rejected = append(res.Rejected, Rejected{Record: o.rec, Err: o.err})
			continue
		}
		res.Buckets[o.part] = append(res.Buckets[o.part], o.rec)
	}

	log.Printf("[Router] Routed %d records into %d partitions (%d rejected, %d workers)",
		res.Routed(), r.partitions, len(res.Rejected), workers)
	return res, ctx.Err()
}

// Source is a pull-style record stream such as a reader.RecordReader.
type Source interface {
	Next() bool
	Record() common.Record
	Err() error
}

// RouteSource feeds src into Route.
func (r *Router) RouteSource(ctx context.Context, src Source, workers int) (*Result, error) {
	if workers <= 0 {
		workers = 1
	}
	in := make(chan common.Record, workers*4)
	srcErr := make(chan error, 1)

	go func() {
		defer close(in)
		for src.Next() {
			select {
			case in <- src.Record():
			case <-ctx.Done():
				srcErr <- ctx.Err()
				return
			}
		}
		srcErr <- src.Err()
	}()

	res, err := r.Route(ctx, in, workers)
	if serr := <-srcErr; serr != nil && err == nil {
		err = fmt.Errorf("read records: %w", serr)
	}
	return res, err
}
