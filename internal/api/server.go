// Package api provides the HTTP API for observing the economy.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/mini-economy/internal/agents"
	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/engine"
	"github.com/talgya/mini-economy/internal/persistence"
)

// Server serves the economy state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; enables /api/v1/history
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	srv *http.Server
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	// The population summary walks every agent under the read lock.
	scans := NewScanQuota(60, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/prices", s.handlePrices)
	mux.HandleFunc("/api/v1/report", s.handleReport)
	mux.HandleFunc("/api/v1/recipes", s.handleRecipes)
	mux.HandleFunc("/api/v1/population", limitScans(scans, s.handlePopulation))
	mux.HandleFunc("/api/v1/agent/", s.handleAgent)
	mux.HandleFunc("/api/v1/history/", s.handleHistory)

	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Close stops the HTTP server.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no ECONSIM_ADMIN_KEY set)", http.StatusForbidden)
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

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.Sim.Snapshot()
	status := map[string]any{
		"run_id":      s.Sim.RunID.String(),
		"tick":        s.Sim.CurrentTick(),
		"speed":       s.Eng.Speed(),
		"running":     s.Eng.Running(),
		"interval":    s.Eng.Interval.String(),
		"population":  stats.Population,
		"bourgeois":   stats.Bourgeois,
		"proletariat": stats.Proletariat,
		"facilities":  stats.Facilities,
		"total_money": stats.TotalMoney,
	}
	writeJSON(w, status)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	type priceEntry struct {
		Good  string  `json:"good"`
		Price float64 `json:"price"`
	}
	records := s.Sim.Prices.Records()
	out := make([]priceEntry, 0, len(records))
	for _, p := range records {
		out = append(out, priceEntry{Good: p.Good.String(), Price: p.Price})
	}
	writeJSON(w, out)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report := s.Sim.LastReport()
	if report == nil {
		http.Error(w, "no tick has completed yet", http.StatusNotFound)
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	type recipeEntry struct {
		Production string   `json:"production"`
		Input      []string `json:"input"`
		Output     string   `json:"output"`
	}
	out := make([]recipeEntry, 0, economy.NumProductions)
	for _, p := range economy.AllProductions() {
		in := []string{}
		for _, g := range p.Input() {
			in = append(in, g.String())
		}
		out = append(out, recipeEntry{Production: p.String(), Input: in, Output: p.Output().String()})
	}
	writeJSON(w, out)
}

func (s *Server) handlePopulation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Summarize())
}

// handleAgent serves GET /api/v1/agent/:id.
func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/agent/")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}
	p, ok := s.Sim.Person(agents.AgentID(id))
	if !ok {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"id":         p.ID,
		"class":      p.Class.String(),
		"income":     p.Income.String(),
		"money":      p.Money,
		"facilities": s.Sim.Industry.ByOwner(p.ID),
	})
}

// handleHistory serves GET /api/v1/history/:good?limit=N from the database.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
		return
	}
	good, err := economy.ParseGoodsType(strings.TrimPrefix(r.URL.Path, "/api/v1/history/"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 10000 {
			http.Error(w, "limit must be 1-10000", http.StatusBadRequest)
			return
		}
		limit = n
	}
	rows, err := s.DB.PriceHistory(good, limit)
	if err != nil {
		slog.Error("history query failed", "good", good.String(), "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
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
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		if err := s.Eng.SetSpeed(req.Speed); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
