package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"tilesplit/pkg/common"
	"tilesplit/pkg/generator"
	"tilesplit/pkg/partition"
	"tilesplit/pkg/reader"
	"tilesplit/pkg/split"
	"tilesplit/pkg/storage"
)

// main runs the whole flow in a temp directory: ingest random tiles, build
// and persist splits, reload them as a worker would, then route the store.
func main() {
	n := flag.Int("n", 20000, "Number of tiles to ingest")
	zoom := flag.Int("zoom", 12, "Zoom level of the generated tiles")
	parts := flag.Int("partitions", 8, "Partition count")
	numbering := flag.String("numbering", "tms", "Tile numbering, tms or morton")
	filter := flag.String("filter", "", "Optional filter, e.g. \"SELECT * FROM tiles WHERE tile >= 1000\"")
	flag.Parse()

	num, err := common.ParseNumbering(*numbering)
	if err != nil {
		log.Fatalf("Bad numbering: %v", err)
	}

	dir, err := os.MkdirTemp("", "tilesplit-example-")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	store, err := storage.OpenTileStore(filepath.Join(dir, "tiles.db"))
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	start := time.Now()
	side := uint32(1) << uint(*zoom)
	batch := make([]common.Record, 0, 500)
	for i := 0; i < *n; i++ {
		tile, err := num.TileID(uint32(rand.Intn(int(side))), uint32(rand.Intn(int(side))), *zoom)
		if err != nil {
			log.Fatalf("Tile id: %v", err)
		}
		batch = append(batch, common.Record{Key: tile, Value: []byte(fmt.Sprintf("tile-%d", tile))})
		if len(batch) == cap(batch) {
			if err := store.BatchWrite(batch); err != nil {
				log.Fatalf("Batch write: %v", err)
			}
			batch = batch[:0]
		}
	}
	if err := store.BatchWrite(batch); err != nil {
		log.Fatalf("Batch write: %v", err)
	}
	fmt.Printf("Ingested %d %s tiles at zoom %d in %v\n", *n, num, *zoom, time.Since(start))

	gen, err := generator.FromStore(store, *parts, 1)
	if err != nil {
		log.Fatalf("Sample: %v", err)
	}
	gen.WithCeiling(generator.MaxTileID(*zoom))

	built := split.NewIndex()
	if err := built.Build(gen); err != nil {
		log.Fatalf("Build: %v", err)
	}
	splitDir := filepath.Join(dir, "splits")
	if err := built.WriteToDir(storage.LocalFS{}, splitDir); err != nil {
		log.Fatalf("Write splits: %v", err)
	}

	// a worker only sees the persisted file
	idx := split.NewIndex()
	if err := idx.ReadFromDir(storage.LocalFS{}, splitDir); err != nil {
		log.Fatalf("Read splits: %v", err)
	}
	router, err := partition.NewRouter(idx)
	if err != nil {
		log.Fatalf("Router: %v", err)
	}

	cur, err := store.Cursor()
	if err != nil {
		log.Fatalf("Cursor: %v", err)
	}
	rr, err := reader.New(cur, *filter)
	if err != nil {
		log.Fatalf("Reader: %v", err)
	}
	defer rr.Close()

	res, err := router.RouteSource(context.Background(), rr, 4)
	if err != nil {
		log.Fatalf("Route: %v", err)
	}

	for _, e := range idx.Entries() {
		fmt.Printf("  partition %d (<= %d): %d tiles\n", e.Partition, e.Key, len(res.Buckets[e.Partition]))
	}
	fmt.Printf("Rejected: %d\n", len(res.Rejected))
}
