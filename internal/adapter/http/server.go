// Package http exposes the tracker's health, metrics, current-location, and
// debug endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/subject-tracker/internal/domain"
	"github.com/couchcryptid/subject-tracker/internal/geolog"
	"github.com/couchcryptid/subject-tracker/internal/resolver"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// LocationSource serves the most recent resolution result.
type LocationSource interface {
	Latest() (domain.CandidateLocation, time.Time)
}

// Tracer runs an on-demand resolution with a full cascade trace.
type Tracer interface {
	ResolveWithTrace(ctx context.Context, fresh bool) (domain.CandidateLocation, []resolver.TraceStep)
}

// Server exposes the tracker's HTTP surface.
type Server struct {
	httpServer *http.Server
	ready      ReadinessChecker
	location   LocationSource
	tracer     Tracer
	geoLog     *geolog.Log
	logger     *slog.Logger
}

// NewServer creates an HTTP server with health, metrics, location, and debug
// routes. geoLog may be nil when geocoding is disabled.
func NewServer(addr string, ready ReadinessChecker, location LocationSource, tracer Tracer, geoLog *geolog.Log, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ready:    ready,
		location: location,
		tracer:   tracer,
		geoLog:   geoLog,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /location.json", s.handleLocation)
	mux.HandleFunc("GET /debug/resolve.json", s.handleResolve)
	mux.HandleFunc("GET /debug/geocode.json", s.handleGeocodeLog)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ready.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type locationResponse struct {
	domain.CandidateLocation
	ResolvedAt time.Time `json:"resolved_at"`
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ready.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}

	loc, at := s.location.Latest()
	writeJSON(w, http.StatusOK, locationResponse{CandidateLocation: loc, ResolvedAt: at})
}

type resolveResponse struct {
	Location domain.CandidateLocation `json:"location"`
	Trace    []resolver.TraceStep     `json:"trace"`
}

// handleResolve runs a full cascade on demand. With ?fresh=1 the feed caches
// are dropped first, so the trace shows live upstream data.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	fresh := r.URL.Query().Get("fresh") == "1"
	loc, trace := s.tracer.ResolveWithTrace(r.Context(), fresh)
	writeJSON(w, http.StatusOK, resolveResponse{Location: loc, Trace: trace})
}

type geocodeLogResponse struct {
	Stats  geolog.Stats   `json:"stats"`
	Recent []geolog.Entry `json:"recent"`
}

func (s *Server) handleGeocodeLog(w http.ResponseWriter, r *http.Request) {
	if s.geoLog == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "geocoding disabled"})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1-500"})
			return
		}
		limit = n
	}

	writeJSON(w, http.StatusOK, geocodeLogResponse{
		Stats:  s.geoLog.Stats(),
		Recent: s.geoLog.Recent(limit),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
