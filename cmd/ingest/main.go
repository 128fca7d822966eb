package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"tilesplit/pkg/common"
	"tilesplit/pkg/config"
	"tilesplit/pkg/storage"
)

// main fills the tile store with random tiles at one zoom level.
func main() {
	configPath := flag.String("config", "", "Path to tilesplit.yaml")
	n := flag.Int("n", 100000, "Number of tiles to write")
	zoom := flag.Int("zoom", -1, "Zoom level (defaults to split.zoom, or 12 when unset)")
	truncate := flag.Bool("truncate", false, "Empty the store first")
	numbering := flag.String("numbering", "", "Tile numbering, tms or morton (defaults to split.numbering)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	z := *zoom
	if z < 0 {
		z = cfg.Split.Zoom
	}
	if z < 0 {
		z = 12
	}
	if *numbering == "" {
		*numbering = cfg.Split.Numbering
	}
	num, err := common.ParseNumbering(*numbering)
	if err != nil {
		log.Fatalf("Bad numbering: %v", err)
	}

	store, err := storage.OpenTileStore(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open tile store: %v", err)
	}
	defer store.Close()

	if *truncate {
		if err := store.Truncate(); err != nil {
			log.Fatalf("Truncate failed: %v", err)
		}
	}

	start := time.Now()
	side := int64(1) << uint(z)
	batch := make([]common.Record, 0, cfg.Storage.BatchSize)
	for i := 0; i < *n; i++ {
		tile, err := num.TileID(uint32(rand.Int63n(side)), uint32(rand.Int63n(side)), z)
		if err != nil {
			log.Fatalf("Tile id: %v", err)
		}
		batch = append(batch, common.Record{Key: tile, Value: []byte(fmt.Sprintf("z%d/%d", z, tile))})
		if len(batch) == cap(batch) {
			if err := store.BatchWrite(batch); err != nil {
				log.Fatalf("Batch write failed: %v", err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := store.BatchWrite(batch); err != nil {
			log.Fatalf("Batch write failed: %v", err)
		}
	}

	count, err := store.Count()
	if err != nil {
		log.Fatalf("Count failed: %v", err)
	}
	log.Printf("[Ingest] Wrote %d %s tiles at zoom %d in %v (store now holds %d)", *n, num, z, time.Since(start), count)
}
