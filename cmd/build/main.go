package main

import (
	"flag"
	"log"
	"time"

	"tilesplit/pkg/config"
	"tilesplit/pkg/generator"
	"tilesplit/pkg/split"
	"tilesplit/pkg/storage"
)

// main samples the tile store, builds the split index and writes it to the
// split directory for workers to load.
func main() {
	configPath := flag.String("config", "", "Path to tilesplit.yaml")
	partitions := flag.Int("partitions", 0, "Partition count (overrides split.partitions)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *partitions > 0 {
		cfg.Split.Partitions = *partitions
	}

	store, err := storage.OpenTileStore(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open tile store: %v", err)
	}
	defer store.Close()

	start := time.Now()
	gen, err := generator.FromStore(store, cfg.Split.Partitions, cfg.Split.SampleRate)
	if err != nil {
		log.Fatalf("Failed to sample tiles: %v", err)
	}
	var g split.Generator = gen
	if cfg.Split.Zoom >= 0 {
		even, err := generator.NewEvenForZoom(cfg.Split.Partitions, cfg.Split.Zoom)
		if err != nil {
			log.Fatalf("Bad split.zoom: %v", err)
		}
		gen.WithCeiling(generator.MaxTileID(cfg.Split.Zoom))
		if gen.Seen() == 0 {
			log.Printf("[Build] Store is empty, splitting zoom %d evenly", cfg.Split.Zoom)
			g = even
		}
	}

	idx := split.NewIndex()
	if err := idx.Build(g); err != nil {
		log.Fatalf("Failed to build splits: %v", err)
	}
	if err := idx.WriteToDir(storage.LocalFS{}, cfg.Storage.SplitDir); err != nil {
		log.Fatalf("Failed to write splits: %v", err)
	}
	log.Printf("[Build] Wrote %d partitions to %s in %v",
		idx.Len(), split.PartitionsPath(cfg.Storage.SplitDir), time.Since(start))
}
