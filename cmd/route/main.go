package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"tilesplit/pkg/common"
	"tilesplit/pkg/config"
	"tilesplit/pkg/partition"
	"tilesplit/pkg/reader"
	"tilesplit/pkg/split"
	"tilesplit/pkg/storage"
)

// main routes every record in the tile store through the persisted splits
// and prints how many landed in each partition.
func main() {
	configPath := flag.String("config", "", "Path to tilesplit.yaml")
	filter := flag.String("filter", "", "Optional filter, e.g. \"SELECT * FROM tiles WHERE tile < 5000 LIMIT 100\"")
	bbox := flag.String("bbox", "", "Keep only tiles inside minx,miny,maxx,maxy (morton numbering only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	idx := split.NewIndex()
	if err := idx.ReadFromDir(storage.LocalFS{}, cfg.Storage.SplitDir); err != nil {
		log.Fatalf("Failed to load splits: %v", err)
	}
	router, err := partition.NewRouter(idx)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	store, err := storage.OpenTileStore(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open tile store: %v", err)
	}
	defer store.Close()

	cur, err := store.Cursor()
	if err != nil {
		log.Fatalf("Failed to open cursor: %v", err)
	}
	rr, err := reader.New(cur, *filter)
	if err != nil {
		log.Fatalf("Bad filter: %v", err)
	}
	defer rr.Close()
	if *bbox != "" {
		if cfg.Split.Numbering != common.Morton.String() {
			log.Fatalf("-bbox needs split.numbering: morton")
		}
		box, err := parseBox(*bbox)
		if err != nil {
			log.Fatalf("Bad bbox: %v", err)
		}
		rr.WithBox(box[0], box[1], box[2], box[3])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	res, err := router.RouteSource(ctx, rr, cfg.Router.Workers)
	if err != nil {
		log.Fatalf("Routing failed: %v", err)
	}

	for _, e := range idx.Entries() {
		fmt.Printf("partition %4d  <= %-12d %d\n", e.Partition, e.Key, len(res.Buckets[e.Partition]))
	}
	for _, rej := range res.Rejected {
		fmt.Printf("rejected tile %d: %v\n", rej.Record.Key, rej.Err)
	}
	log.Printf("[Route] %d routed, %d rejected in %v", res.Routed(), len(res.Rejected), time.Since(start))
}

func parseBox(s string) ([4]uint32, error) {
	var box [4]uint32
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return box, fmt.Errorf("want 4 comma separated values, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return box, err
		}
		box[i] = uint32(v)
	}
	return box, nil
}
