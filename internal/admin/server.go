// Package admin exposes the thin administrative HTTP surface: stats, claims,
// cursor override and one-shot block reindexing.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ordinalsplus/indexer-go/internal/coordinator"
	"github.com/ordinalsplus/indexer-go/internal/indexer"
	"github.com/ordinalsplus/indexer-go/internal/repository"
	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

// Server serves the admin endpoints.
type Server struct {
	coord    *coordinator.Coordinator
	repo     *repository.Repository
	worker   *indexer.Worker
	breakers *resilience.BreakerRegistry
	log      *slog.Logger
	server   *http.Server
}

// NewServer wires the admin routes.
func NewServer(port int, coord *coordinator.Coordinator, repo *repository.Repository, worker *indexer.Worker, breakers *resilience.BreakerRegistry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		coord:    coord,
		repo:     repo,
		worker:   worker,
		breakers: breakers,
		log:      log.With("component", "admin"),
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Get("/stats", s.handleStats)
	r.Get("/claims", s.handleClaims)
	r.Get("/errors", s.handleErrors)
	r.Put("/cursor", s.handleSetCursor)
	r.Post("/block/{height}", s.handleIndexBlock)
	r.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
	return s
}

// Start blocks serving HTTP until Stop.
func (s *Server) Start() error {
	s.log.Info("Admin server listening", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"breakers": s.breakers.Snapshot(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repo.GetStats(r.Context())
	if err != nil {
		s.log.Error("Stats query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := s.coord.ActiveClaims(r.Context())
	if err != nil {
		s.log.Error("Claims query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	errs, err := s.repo.RecentErrors(r.Context(), limit)
	if err != nil {
		s.log.Error("Error sample query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if errs == nil {
		errs = []repository.CategorizedError{}
	}
	writeJSON(w, http.StatusOK, errs)
}

func (s *Server) handleSetCursor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value int64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	cursor, err := s.coord.SetCursor(r.Context(), body.Value)
	if err != nil {
		s.log.Error("Cursor override failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cursor": cursor})
}

func (s *Server) handleIndexBlock(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.ParseUint(chi.URLParam(r, "height"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid height"})
		return
	}

	// Block reprocessing can take a while; bound it independently of the
	// request's own deadline.
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	counters, err := s.worker.IndexBlock(ctx, height)
	if err != nil {
		s.log.Error("Block reindex failed", "height", height, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, counters)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
