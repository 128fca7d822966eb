package main

import (
	"flag"
	"log"

	"tilesplit/pkg/api"
	"tilesplit/pkg/common"
	"tilesplit/pkg/config"
	"tilesplit/pkg/network"
	"tilesplit/pkg/partition"
	"tilesplit/pkg/split"
	"tilesplit/pkg/storage"
)

// main loads the persisted split index and serves lookups over HTTP and TCP.
func main() {
	configPath := flag.String("config", "", "Path to tilesplit.yaml")
	splitDir := flag.String("splits", "", "Split directory (overrides storage.split_dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *splitDir != "" {
		cfg.Storage.SplitDir = *splitDir
	}

	idx := split.NewIndex()
	if err := idx.ReadFromDir(storage.LocalFS{}, cfg.Storage.SplitDir); err != nil {
		log.Fatalf("Failed to load splits from %s: %v", cfg.Storage.SplitDir, err)
	}
	log.Printf("[Server] Loaded %d split entries from %s", idx.Len(), split.PartitionsPath(cfg.Storage.SplitDir))

	router, err := partition.NewRouter(idx)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	tcp := network.NewTCPServer(router)
	go func() {
		if err := tcp.Start(cfg.Server.TCPAddr); err != nil {
			log.Fatalf("TCP server: %v", err)
		}
	}()

	numbering, _ := common.ParseNumbering(cfg.Split.Numbering)
	httpServer := api.NewServer(router)
	httpServer.SetNumbering(numbering)
	if err := httpServer.Start(cfg.Server.Addr); err != nil {
		log.Fatalf("HTTP server: %v", err)
	}
}
