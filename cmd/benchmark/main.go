package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"tilesplit/pkg/client"
	"tilesplit/pkg/common"
)

func main() {
	httpAddr := flag.String("http", "http://localhost:8080", "HTTP API base URL")
	tcpAddr := flag.String("tcp", "localhost:9090", "TCP server address")
	nReq := flag.Int("n", 5000, "Number of lookups per run")
	flag.Parse()

	fmt.Printf("tilesplit Lookup Benchmark (N=%d)\n", *nReq)
	fmt.Printf("  HTTP=%s  TCP=%s\n", *httpAddr, *tcpAddr)
	fmt.Println("---------------------------------------------------")

	cli, err := client.Dial(*tcpAddr)
	if err != nil {
		log.Fatalf("TCP Connect failed: %v", err)
	}
	defer cli.Close()

	// draw keys from the served range so both runs do real lookups
	splits, err := cli.Splits()
	if err != nil {
		log.Fatalf("Fetching splits failed: %v", err)
	}
	entries := splits.Entries()
	maxKey := int64(entries[len(entries)-1].Key)
	fmt.Printf("  %d partitions, max tile %d\n\n", len(entries), maxKey)

	keys := make([]common.TileID, *nReq)
	for i := range keys {
		keys[i] = common.TileID(rand.Int63n(maxKey + 1))
	}

	fmt.Println(">> Starting HTTP Benchmark (JSON over HTTP 1.1)...")
	httpDuration := runHTTPBenchmark(*httpAddr, keys)
	fmt.Printf("   HTTP Time: %v | QPS: %.0f\n\n", httpDuration, float64(*nReq)/httpDuration.Seconds())

	fmt.Println(">> Starting TCP Benchmark (Binary Protocol)...")
	tcpDuration := runTCPBenchmark(cli, keys)
	fmt.Printf("   TCP  Time: %v | QPS: %.0f\n", tcpDuration, float64(*nReq)/tcpDuration.Seconds())

	fmt.Println("---------------------------------------------------")
	fmt.Printf("TCP/HTTP speedup: %.2fx\n", httpDuration.Seconds()/tcpDuration.Seconds())
}

func runHTTPBenchmark(httpAddr string, keys []common.TileID) time.Duration {
	start := time.Now()
	hc := &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 100,
		},
	}

	for _, k := range keys {
		resp, err := hc.Get(fmt.Sprintf("%s/api/lookup?tile=%d", httpAddr, k))
		if err != nil {
			log.Fatalf("HTTP Req failed: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			log.Fatalf("HTTP lookup of %d returned %d", k, resp.StatusCode)
		}
	}
	return time.Since(start)
}

func runTCPBenchmark(cli *client.Client, keys []common.TileID) time.Duration {
	start := time.Now()
	for _, k := range keys {
		if _, err := cli.Lookup(k); err != nil {
			log.Fatalf("TCP lookup of %d failed: %v", k, err)
		}
	}
	return time.Since(start)
}
