// Package ops exposes the operational HTTP surface: source health and
// administrative circuit breaker overrides.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/XavierBriggs/Ares/internal/registry"
	"github.com/XavierBriggs/Ares/pkg/models"
)

// Server serves the ops API for one Ares instance
type Server struct {
	addr       string
	registry   *registry.SourceRegistry
	httpServer *http.Server
}

// NewServer creates an ops server over the given source registry
func NewServer(addr string, reg *registry.SourceRegistry) *Server {
	return &Server{
		addr:     addr,
		registry: reg,
	}
}

// Handler builds the ops router. Exposed for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/sources", s.handleListSources)
		r.Get("/sources/{sourceID}/status", s.handleSourceStatus)
		r.Post("/sources/{sourceID}/breaker/reset", s.handleBreakerReset)
	})

	return r
}

// Start begins serving in the background
func (s *Server) Start() {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("❌ Ops server error: %v\n", err)
		}
	}()

	fmt.Printf("✓ Ops server listening on %s\n", s.addr)
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns service liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "ares",
		"sources":   s.registry.Count(),
		"timestamp": time.Now().UTC(),
	})
}

// handleListSources returns the health snapshot of every registered source
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources := s.registry.GetAll()

	statuses := make([]models.SourceStatus, 0, len(sources))
	for _, source := range sources {
		statuses = append(statuses, source.Status())
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sources": statuses,
		"count":   len(statuses),
	})
}

// handleSourceStatus returns one source's health snapshot
func (s *Server) handleSourceStatus(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "sourceID")

	source, ok := s.registry.Get(sourceID)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("source %s not found", sourceID))
		return
	}

	respondJSON(w, http.StatusOK, source.Status())
}

// handleBreakerReset forces a source's circuit closed and returns the
// resulting status
func (s *Server) handleBreakerReset(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "sourceID")

	source, ok := s.registry.Get(sourceID)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("source %s not found", sourceID))
		return
	}

	source.ResetCircuitBreaker()
	fmt.Printf("[Ops] Circuit breaker reset for %s\n", sourceID)

	respondJSON(w, http.StatusOK, source.Status())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("error encoding response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error": message,
	})
}
