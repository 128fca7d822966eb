package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tilesplit/pkg/client"
	"tilesplit/pkg/common"
)

const Prompt = "tilesplit> "

func main() {
	serverAddr := flag.String("addr", "localhost:9090", "tilesplit TCP Server Address")
	flag.Parse()

	fmt.Printf("tilesplit CLI (Target: %s)\n", *serverAddr)
	fmt.Println("Connecting...")

	cli, err := client.Dial(*serverAddr)
	if err != nil {
		fmt.Printf("Connection failed: %v\n", err)
		fmt.Println("Tip: Ensure the server is running (e.g. go run cmd/server/main.go).")
		return
	}
	defer cli.Close()
	fmt.Println("Connected! Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(Prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "lookup", "get":
			handleLookup(cli, parts)
		case "tile":
			handleTile(cli, parts)
		case "count", "len":
			handleCount(cli)
		case "splits", "dump":
			handleSplits(cli)
		case "help":
			printHelp()
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Printf("Unknown command: '%s'. Type 'help'.\n", cmd)
		}
	}
}

func handleLookup(cli *client.Client, parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: lookup <tile_id>")
		return
	}

	tile, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		fmt.Println("Error: Tile id must be an integer")
		return
	}
	lookup(cli, common.TileID(tile))
}

func handleTile(cli *client.Client, parts []string) {
	if len(parts) < 4 {
		fmt.Println("Usage: tile <x> <y> <zoom> [tms|morton]")
		return
	}
	numbering := common.RowMajor
	if len(parts) > 4 {
		n, err := common.ParseNumbering(parts[4])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		numbering = n
	}

	x, err1 := strconv.ParseUint(parts[1], 10, 32)
	y, err2 := strconv.ParseUint(parts[2], 10, 32)
	zoom, err3 := strconv.Atoi(parts[3])
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Println("Error: x, y and zoom must be non-negative integers")
		return
	}

	tile, err := numbering.TileID(uint32(x), uint32(y), zoom)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Tile (%d, %d) @ z%d = %d (%s)\n", x, y, zoom, tile, numbering)
	lookup(cli, tile)
}

func lookup(cli *client.Client, tile common.TileID) {
	start := time.Now()
	e, err := cli.Lookup(tile)
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Printf("partition %d (boundary %d) (%v)\n", e.Partition, e.Key, duration)
	}
}

func handleCount(cli *client.Client) {
	n, err := cli.Count()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%d entries\n", n)
}

func handleSplits(cli *client.Client) {
	idx, err := cli.Splits()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("%d entries:\n", idx.Len())
	for i, e := range idx.Entries() {
		if i >= 20 {
			fmt.Printf("... and %d more\n", idx.Len()-20)
			break
		}
		fmt.Printf("  [%d] <= %d\n", e.Partition, e.Key)
	}
}

func printHelp() {
	fmt.Println(`
Commands:
  lookup <tile>          Partition owning a tile id
  tile <x> <y> <zoom> [tms|morton]
                         Partition owning a tile coordinate
  count                  Number of split entries
  splits                 Show the split table
  exit                   Exit CLI
	`)
}
