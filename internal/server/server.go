// Package server exposes research episodes and evolution history over HTTP:
// an SSE stream (with a websocket alternate) for live episodes, plus small
// JSON read endpoints.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/raphaelgruber/scout-go/internal/episode"
	"github.com/raphaelgruber/scout-go/internal/metrics"
	"github.com/raphaelgruber/scout-go/internal/models"
)

// EpisodeRunner starts research episodes.
type EpisodeRunner interface {
	Run(ctx context.Context, topicID, query string) (<-chan episode.Event, error)
}

// EvolutionLister reads a topic's evolution log, newest first.
type EvolutionLister interface {
	ListEvolutionEntries(ctx context.Context, topicID string, limit int) ([]models.EvolutionLogEntry, error)
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	runner     EpisodeRunner
	evolutions EvolutionLister
	collector  *metrics.Collector
	logger     *slog.Logger
	version    string
}

// New creates a Server. collector may be nil, which disables /api/stats.
func New(runner EpisodeRunner, evolutions EvolutionLister, collector *metrics.Collector, logger *slog.Logger, version string) *Server {
	return &Server{
		runner:     runner,
		evolutions: evolutions,
		collector:  collector,
		logger:     logger,
		version:    version,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/topics/{id}/research", s.handleResearch)
	mux.HandleFunc("GET /ws/topics/{id}/research", s.handleResearchWS)
	mux.HandleFunc("GET /api/topics/{id}/evolutions", s.handleEvolutions)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.logging(mux)
}

// HTTPServer wraps the handler in an http.Server with timeouts suited to
// long-lived event streams.
func (s *Server) HTTPServer(port string) *http.Server {
	return &http.Server{
		Addr:        ":" + port,
		Handler:     s.Handler(),
		ReadTimeout: 5 * time.Second,
		// No WriteTimeout: research streams stay open for the whole episode.
		IdleTimeout: 120 * time.Second,
	}
}

// slowRequestThreshold is the duration above which requests are logged at
// WARN level. Streaming endpoints are exempt, they are slow by nature.
const slowRequestThreshold = 100 * time.Millisecond

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
		}

		streaming := r.Method == http.MethodPost || strings.HasPrefix(r.URL.Path, "/ws/")
		switch {
		case rec.status >= 500:
			s.logger.Error("request failed", attrs...)
		case duration > slowRequestThreshold && !streaming:
			s.logger.Warn("slow request", attrs...)
		default:
			s.logger.Debug("request completed", attrs...)
		}
	})
}
