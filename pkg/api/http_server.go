package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"tilesplit/pkg/common"
	"tilesplit/pkg/partition"
	"tilesplit/pkg/split"
)

type Server struct {
	router    *partition.Router
	mux       *http.ServeMux
	numbering common.Numbering
}

func NewServer(router *partition.Router) *Server {
	s := &Server{router: router, mux: http.NewServeMux()}
	s.mux.HandleFunc("/api/lookup", s.handleLookup)
	s.mux.HandleFunc("/api/tile", s.handleTile)
	s.mux.HandleFunc("/api/bbox", s.handleBBox)
	s.mux.HandleFunc("/api/splits", s.handleSplits)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	return s
}

// SetNumbering sets how the served tile ids were numbered. /api/bbox needs
// Morton ids.
func (s *Server) SetNumbering(n common.Numbering) {
	s.numbering = n
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(addr string) error {
	log.Printf("[API] Server listening on %s...", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	tileStr := r.URL.Query().Get("tile")
	tile, err := strconv.ParseInt(tileStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid tile", http.StatusBadRequest)
		return
	}
	s.writeLookup(w, common.TileID(tile), nil)
}

// handleTile resolves a tile coordinate to its TMS id and partition.
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		X         uint32 `json:"x"`
		Y         uint32 `json:"y"`
		Zoom      int    `json:"zoom"`
		Numbering string `json:"numbering"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	numbering := s.numbering
	if req.Numbering != "" {
		n, err := common.ParseNumbering(req.Numbering)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		numbering = n
	}
	tile, err := numbering.TileID(req.X, req.Y, req.Zoom)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeLookup(w, tile, map[string]interface{}{
		"x": req.X, "y": req.Y, "zoom": req.Zoom, "numbering": numbering.String(),
	})
}

// handleBBox lists the partitions holding any tile of an inclusive box:
// /api/bbox?minx=&miny=&maxx=&maxy=&zoom=
func (s *Server) handleBBox(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if s.numbering != common.Morton {
		http.Error(w, "bbox queries need morton tile numbering", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	var coords [4]uint32
	for i, name := range []string{"minx", "miny", "maxx", "maxy"} {
		v, err := strconv.ParseUint(q.Get(name), 10, 32)
		if err != nil {
			http.Error(w, "Invalid "+name, http.StatusBadRequest)
			return
		}
		coords[i] = uint32(v)
	}
	zoom, err := strconv.Atoi(q.Get("zoom"))
	if err != nil {
		http.Error(w, "Invalid zoom", http.StatusBadRequest)
		return
	}

	ranges, err := common.GetZRanges(coords[0], coords[1], coords[2], coords[3], zoom)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	parts, overflow := s.router.Cover(ranges)
	if parts == nil {
		parts = []int{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"partitions": parts,
		"ranges":     len(ranges),
		"overflow":   overflow,
	})
}

func (s *Server) writeLookup(w http.ResponseWriter, tile common.TileID, extra map[string]interface{}) {
	start := time.Now()
	e, err := s.router.Lookup(tile)
	duration := time.Since(start)

	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	resp := map[string]interface{}{
		"tile":       int64(tile),
		"boundary":   int64(e.Key),
		"partition":  e.Partition,
		"latency_ns": duration.Nanoseconds(),
	}
	for k, v := range extra {
		resp[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleSplits(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Disposition", "attachment;filename="+split.FileName)

	if _, err := s.router.Index().WriteTo(w); err != nil {
		log.Printf("[API] Write splits: %v", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	stats := s.router.Stats().Snapshot()
	stats["partitions"] = s.router.Partitions()
	stats["entries"] = s.router.Index().Len()
	json.NewEncoder(w).Encode(stats)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, split.ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, split.ErrNotGenerated):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
