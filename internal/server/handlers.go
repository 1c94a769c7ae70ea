package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/raphaelgruber/scout-go/internal/db"
	"github.com/raphaelgruber/scout-go/internal/episode"
	"github.com/raphaelgruber/scout-go/internal/models"
)

// recentLimit caps "recent" evolution-log reads.
const recentLimit = 5

type researchRequest struct {
	Query string `json:"query"`
}

// handleResearch runs an episode and streams its events as SSE frames. The
// stream is committed before agent work begins, so mid-stream failures
// surface as error events, not HTTP errors.
func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("id")

	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	events, err := s.runner.Run(r.Context(), topicID, req.Query)
	if err != nil {
		switch {
		case errors.Is(err, episode.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, db.ErrNotFound):
			writeError(w, http.StatusNotFound, fmt.Sprintf("topic %q not found", topicID))
		default:
			s.logger.Error("failed to start episode", "topic_id", topicID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to start episode")
		}
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)

	// On client disconnect the episode keeps running server-side; we stop
	// writing but keep draining so the producer can finish.
	disconnected := false
	for e := range events {
		if disconnected {
			continue
		}
		payload, err := json.Marshal(e)
		if err != nil {
			s.logger.Error("failed to marshal event", "type", e.Type, "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			s.logger.Debug("client disconnected mid-stream", "topic_id", topicID)
			disconnected = true
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

type evolutionEntry struct {
	FromVersion int                  `json:"fromVersion"`
	ToVersion   int                  `json:"toVersion"`
	Reason      string               `json:"reason"`
	Timestamp   time.Time            `json:"timestamp"`
	Changes     *models.StrategyDiff `json:"changes"`
}

// handleEvolutions lists a topic's evolution log, newest first. With
// recent=true only the 5 most recent entries are returned.
func (s *Server) handleEvolutions(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("id")

	limit := 0
	if r.URL.Query().Get("recent") == "true" {
		limit = recentLimit
	}

	entries, err := s.evolutions.ListEvolutionEntries(r.Context(), topicID, limit)
	if err != nil {
		s.logger.Error("failed to list evolutions", "topic_id", topicID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list evolutions")
		return
	}

	out := make([]evolutionEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, evolutionEntry{
			FromVersion: e.FromVersion,
			ToVersion:   e.ToVersion,
			Reason:      e.Reason,
			Timestamp:   e.Created,
			Changes:     e.Changes,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeError(w, http.StatusNotFound, "stats collection disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.collector.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
