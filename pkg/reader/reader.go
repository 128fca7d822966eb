// Package reader wraps a tile record source and drops records that fail a
// filter query before they reach the partitioner.
package reader

import (
	"fmt"
	"log"

	"tilesplit/pkg/common"
	"tilesplit/pkg/query"
)

// Source is the delegate a RecordReader pulls from. *storage.Cursor
// satisfies it.
type Source interface {
	Next() bool
	Record() common.Record
	Err() error
	Close() error
}

type RecordReader struct {
	src    Source
	filter *query.SelectStmt
	box    *[4]uint32
	cur    common.Record
	count  int
	done   bool
}

// New wraps src. An empty filter passes every record.
func New(src Source, filter string) (*RecordReader, error) {
	r := &RecordReader{src: src}
	if filter != "" {
		stmt, err := query.Parse(filter)
		if err != nil {
			return nil, fmt.Errorf("unable to build filter for %q: %w", filter, err)
		}
		r.filter = stmt
	}
	return r, nil
}

// WithBox also drops records whose Morton tile id falls outside the inclusive
// tile box. Only meaningful for Morton-numbered stores.
func (r *RecordReader) WithBox(minX, minY, maxX, maxY uint32) *RecordReader {
	r.box = &[4]uint32{minX, minY, maxX, maxY}
	return r
}

func (r *RecordReader) keep(key common.TileID) bool {
	if !r.filter.Match(key) {
		return false
	}
	return r.box == nil || common.InRange(key, r.box[0], r.box[1], r.box[2], r.box[3])
}

// Next advances to the next record passing the filter.
func (r *RecordReader) Next() bool {
	if r.done {
		return false
	}
	if r.filter != nil && r.filter.Limit >= 0 && r.count >= r.filter.Limit {
		r.cur = common.Record{}
		r.done = true
		return false
	}
	for r.src.Next() {
		rec := r.src.Record()
		if r.keep(rec.Key) {
			r.cur = rec
			r.count++
			return true
		}
	}
	r.cur = common.Record{}
	r.done = true
	return false
}

func (r *RecordReader) Record() common.Record {
	return r.cur
}

// Count is the number of records delivered so far.
func (r *RecordReader) Count() int {
	return r.count
}

func (r *RecordReader) Err() error {
	return r.src.Err()
}

func (r *RecordReader) Close() error {
	err := r.src.Close()
	log.Printf("[Reader] Tile count from reader = %d", r.count)
	return err
}

// ReadAll drains r into a slice.
func ReadAll(r *RecordReader) ([]common.Record, error) {
	var out []common.Record
	for r.Next() {
		out = append(out, r.Record())
	}
	return out, r.Err()
}
