// Package api serves persisted clustering runs and allocation
// recommendations over HTTP: JSON endpoints for the data and go-echarts
// HTML endpoints for quick visual inspection without the batch outputs.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/fastfish-data/merch.report/internal/db"
	"github.com/fastfish-data/merch.report/internal/monitoring"
	"github.com/fastfish-data/merch.report/internal/report"
)

// Server handles the HTTP interface over the run database.
type Server struct {
	address string
	db      *db.DB
	server  *http.Server
}

// Config contains configuration options for the API server.
type Config struct {
	Address string
	DB      *db.DB
}

// NewServer creates an API server with the provided configuration.
func NewServer(config Config) *Server {
	s := &Server{
		address: config.Address,
		db:      config.DB,
	}
	s.server = &http.Server{
		Addr:    s.address,
		Handler: s.setupRoutes(),
	}
	return s
}

// Handler exposes the route mux so callers can mount extra routes (debug,
// static) on the same listener.
func (s *Server) Handler() *http.ServeMux {
	return s.server.Handler.(*http.ServeMux)
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("starting HTTP server on %s", s.address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := s.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/runs", s.logged(s.handleListRuns))
	mux.HandleFunc("/api/run", s.logged(s.handleGetRun))
	mux.HandleFunc("/api/run/assignments", s.logged(s.handleAssignments))
	mux.HandleFunc("/api/run/recommendations", s.logged(s.handleRecommendations))
	mux.HandleFunc("/charts/sizes", s.logged(s.handleSizesChart))
	mux.HandleFunc("/charts/rules", s.logged(s.handleRulesChart))

	return mux
}

// logged wraps a handler with one request log line.
func (s *Server) logged(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		monitoring.Logf("%s %s (%s)", r.Method, r.URL.RequestURI(), time.Since(start))
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// handleListRuns returns recent cluster runs, newest first.
// Query params:
//
//	period (optional) filter to one half-month label
//	limit (optional, default 20, max 500)
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	runs, err := s.db.ListClusterRuns(r.URL.Query().Get("period"), limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []db.ClusterRun{}
	}
	s.writeJSON(w, runs)
}

func (s *Server) runFromQuery(w http.ResponseWriter, r *http.Request) (*db.ClusterRun, bool) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeJSONError(w, http.StatusBadRequest, "missing 'id' parameter")
		return nil, false
	}
	run, err := s.db.GetClusterRun(id)
	if errors.Is(err, db.ErrNotFound) {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get run: %v", err))
		return nil, false
	}
	return run, true
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runFromQuery(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, run)
}

func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runFromQuery(w, r)
	if !ok {
		return
	}
	assignments, err := s.db.GetAssignments(run.ID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get assignments: %v", err))
		return
	}
	if assignments == nil {
		assignments = []db.Assignment{}
	}
	s.writeJSON(w, assignments)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runFromQuery(w, r)
	if !ok {
		return
	}
	recs, err := s.db.GetRecommendations(run.ID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get recommendations: %v", err))
		return
	}
	s.writeJSON(w, recs)
}

// handleSizesChart renders cluster member counts for a run as an HTML bar
// chart built from the stored assignments.
func (s *Server) handleSizesChart(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runFromQuery(w, r)
	if !ok {
		return
	}
	assignments, err := s.db.GetAssignments(run.ID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get assignments: %v", err))
		return
	}

	sizes := make(map[int]int)
	for _, a := range assignments {
		sizes[a.ClusterID]++
	}
	ids := make([]int, 0, len(sizes))
	for id := range sizes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	summaries := make([]report.ClusterSummary, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, report.ClusterSummary{ClusterID: id, Size: sizes[id]})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	title := fmt.Sprintf("Cluster Sizes %s", run.Period)
	if err := report.RenderClusterSizes(w, title, summaries); err != nil {
		monitoring.Logf("failed to render sizes chart: %v", err)
	}
}

// handleRulesChart renders recommendation counts per rule for a run.
func (s *Server) handleRulesChart(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runFromQuery(w, r)
	if !ok {
		return
	}
	recs, err := s.db.GetRecommendations(run.ID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get recommendations: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	title := fmt.Sprintf("Recommendations by Rule %s", run.Period)
	if err := report.RenderRuleCounts(w, title, recs); err != nil {
		monitoring.Logf("failed to render rules chart: %v", err)
	}
}
