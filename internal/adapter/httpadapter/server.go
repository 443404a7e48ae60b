package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/quake-feed-service/internal/domain"
	"github.com/couchcryptid/quake-feed-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// EarthquakeSource is the view of the pipeline the HTTP layer needs.
type EarthquakeSource interface {
	CheckReadiness(ctx context.Context) error
	Snapshot() domain.Snapshot
	Refresh(ctx context.Context) (domain.Snapshot, error)
	Loading() bool
}

// Server exposes the earthquake list plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	source     EarthquakeSource
	limiter    *rate.Limiter
	location   *time.Location
	logger     *slog.Logger
}

type listResponse struct {
	LoadedAt    *time.Time        `json:"loaded_at,omitempty"`
	Count       int               `json:"count"`
	Earthquakes []domain.ListItem `json:"earthquakes"`
}

// NewServer creates an HTTP server. Manual refreshes are throttled by limiter
// (nil disables throttling); list dates and times render in loc.
func NewServer(addr string, source EarthquakeSource, limiter *rate.Limiter, loc *time.Location, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// A refresh holds the response open for a full feed load.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source:   source,
		limiter:  limiter,
		location: loc,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(source))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /earthquakes", s.handleList)
	mux.HandleFunc("GET /earthquakes/{index}", s.handleDetail)
	mux.HandleFunc("POST /earthquakes/refresh", s.handleRefresh)

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

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.newListResponse(s.source.Snapshot()))
}

// handleDetail sends the client to the USGS event page of the selected record.
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	e, ok := s.source.Snapshot().At(index)
	if !ok {
		writeError(w, http.StatusNotFound, "no earthquake at index "+strconv.Itoa(index))
		return
	}
	http.Redirect(w, r, e.DetailURL, http.StatusFound)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// A rejected request must not spend a limiter token.
	if s.source.Loading() {
		writeError(w, http.StatusConflict, pipeline.ErrLoadInProgress.Error())
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "refresh rate limited")
		return
	}

	snap, err := s.source.Refresh(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrLoadInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case r.Context().Err() != nil:
		// The client went away; the load result was discarded.
		s.logger.Info("refresh abandoned by client", "error", r.Context().Err())
		return
	case err != nil:
		s.logger.Error("refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, s.newListResponse(snap))
}

func (s *Server) newListResponse(snap domain.Snapshot) listResponse {
	resp := listResponse{
		Count:       snap.Len(),
		Earthquakes: domain.NewListItems(snap.Earthquakes, s.location),
	}
	if !snap.IsZero() {
		loadedAt := snap.LoadedAt
		resp.LoadedAt = &loadedAt
	}
	return resp
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
