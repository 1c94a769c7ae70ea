package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/scout-go/internal/db"
	"github.com/raphaelgruber/scout-go/internal/episode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev
	},
}

// handleResearchWS runs an episode and streams the same event JSON over a
// websocket connection. The query travels in the URL since websocket
// handshakes are GETs.
func (s *Server) handleResearchWS(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("id")
	query := r.URL.Query().Get("query")

	events, err := s.runner.Run(r.Context(), topicID, query)
	if err != nil {
		switch {
		case errors.Is(err, episode.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, db.ErrNotFound):
			writeError(w, http.StatusNotFound, "topic not found")
		default:
			s.logger.Error("failed to start episode", "topic_id", topicID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to start episode")
		}
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		// The episode already started; drain it so it can finish.
		for range events {
		}
		return
	}
	defer conn.Close()

	disconnected := false
	for e := range events {
		if disconnected {
			continue
		}
		if err := conn.WriteJSON(e); err != nil {
			s.logger.Debug("websocket client disconnected mid-stream", "topic_id", topicID)
			disconnected = true
		}
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
