// Package api provides the HTTP API for watching and playing a match.
// GET endpoints are public (read-only observation).
// POST /select and /route carry the human player's input; /speed requires
// a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/conquest/internal/engine"
	"github.com/talgya/conquest/internal/march"
	"github.com/talgya/conquest/internal/persistence"
	"github.com/talgya/conquest/internal/world"
)

// Server serves the match over HTTP.
type Server struct {
	Runner   *engine.Runner
	DB       *persistence.DB // optional; /matches answers 503 without it
	Port     int
	AdminKey string // Bearer token for /speed. Empty = speed control disabled.

	// Selections allowed per client per second.
	SelectRate int
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	rate := s.SelectRate
	if rate <= 0 {
		rate = 20
	}
	inputLimiter := NewRateLimiter(rate, time.Second)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/map", s.handleMap)
	mux.HandleFunc("/api/v1/cell/", s.handleCell)
	mux.HandleFunc("/api/v1/players", s.handlePlayers)
	mux.HandleFunc("/api/v1/orders", s.handleOrders)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/matches", s.handleMatches)
	mux.HandleFunc("/api/v1/matches/", s.handleMatchDetail)

	// Player input (POST, rate limited per IP).
	mux.HandleFunc("/api/v1/select", postOnly(RateLimitMiddleware(inputLimiter, s.handleSelect)))
	mux.HandleFunc("/api/v1/route", postOnly(RateLimitMiddleware(inputLimiter, s.handleRoute)))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "ledger", s.DB != nil)

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no CONQUEST_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var status engine.Status
	s.Runner.Do(func(g *engine.Game) { status = g.Status() })

	writeJSON(w, map[string]any{
		"match":  status,
		"speed":  s.Runner.Speed(),
		"ticks":  s.Runner.Ticks(),
		"paused": s.Runner.Speed() == 0,
	})
}

// handleMap returns every cell for the grid renderer.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	var (
		width, height int
		cells         []engine.CellView
	)
	s.Runner.Do(func(g *engine.Game) {
		width, height = g.Map.Width, g.Map.Height
		cells = g.SnapshotMap()
	})
	writeJSON(w, map[string]any{
		"width":  width,
		"height": height,
		"cells":  cells,
	})
}

// handleCell serves GET /api/v1/cell/:x/:y.
func (s *Server) handleCell(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/cell/"), "/")
	if len(parts) != 2 {
		http.Error(w, "usage: /api/v1/cell/{x}/{y}", http.StatusBadRequest)
		return
	}
	x, errX := strconv.Atoi(parts[0])
	y, errY := strconv.Atoi(parts[1])
	if errX != nil || errY != nil {
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
		return
	}

	var (
		view engine.CellView
		ok   bool
	)
	s.Runner.Do(func(g *engine.Game) { view, ok = g.SnapshotCell(world.Pos{X: x, Y: y}) })
	if !ok {
		http.Error(w, "cell not found", http.StatusNotFound)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	var summaries []engine.Summary
	s.Runner.Do(func(g *engine.Game) { summaries = g.Summaries() })
	writeJSON(w, summaries)
}

// handleOrders lists a player's queued orders; the human player by default.
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []engine.OrderView
		id     world.PlayerID
		known  bool
	)
	param := r.URL.Query().Get("player")
	s.Runner.Do(func(g *engine.Game) {
		id = g.Human
		if param != "" {
			n, err := strconv.Atoi(param)
			if err != nil {
				return
			}
			id = world.PlayerID(n)
		}
		if g.Players.ByID(id) == nil {
			return
		}
		known = true
		orders = g.ActiveOrdersFor(id)
	})
	if !known {
		http.Error(w, "player not found", http.StatusNotFound)
		return
	}
	if orders == nil {
		orders = []engine.OrderView{}
	}
	writeJSON(w, map[string]any{
		"player": id,
		"count":  len(orders),
		"orders": orders,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var entries []engine.Entry
	s.Runner.Do(func(g *engine.Game) { entries = g.Journal.Recent(limit) })
	writeJSON(w, entries)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "match ledger disabled", http.StatusServiceUnavailable)
		return
	}
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	matches, err := s.DB.RecentMatches(limit)
	if err != nil {
		slog.Error("ledger read failed", "error", err)
		http.Error(w, "ledger read failed", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []persistence.MatchRecord{}
	}
	writeJSON(w, matches)
}

// handleMatchDetail serves GET /api/v1/matches/:id with events.
func (s *Server) handleMatchDetail(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "match ledger disabled", http.StatusServiceUnavailable)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/matches/")
	if id == "" {
		s.handleMatches(w, r)
		return
	}
	m, err := s.DB.Match(id)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("ledger read failed", "match", id, "error", err)
		http.Error(w, "ledger read failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, m)
}

type cellRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var (
		sel engine.Selection
		err error
	)
	s.Runner.Do(func(g *engine.Game) { sel, err = g.SelectCell(world.Pos{X: req.X, Y: req.Y}) })
	if err != nil {
		writeInputError(w, err)
		return
	}
	writeJSON(w, sel)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"` // begin, add, finish, cancel
		X      int    `json:"x"`
		Y      int    `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var (
		resp = map[string]any{"action": req.Action}
		err  error
		bad  bool
	)
	s.Runner.Do(func(g *engine.Game) {
		switch req.Action {
		case "begin":
			err = g.BeginRoute()
		case "add":
			err = g.AddWaypoint(world.Pos{X: req.X, Y: req.Y})
		case "finish":
			var o *march.Order
			if o, err = g.FinishRoute(); err == nil {
				resp["order_id"] = o.ID
				resp["path"] = o.Path
			}
		case "cancel":
			g.CancelRoute()
		default:
			bad = true
			return
		}
		resp["route"] = g.Route()
	})
	if bad {
		http.Error(w, "action must be begin, add, finish or cancel", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeInputError(w, err)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		s.Runner.SetSpeed(req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Runner.Speed()})
}

// writeInputError maps rejected player input onto a status code.
func writeInputError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	if errors.Is(err, engine.ErrNotPlaying) || errors.Is(err, march.ErrHalted) {
		status = http.StatusConflict
	}
	slog.Warn("player input rejected", "error", err, "status", status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
