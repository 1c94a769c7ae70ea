package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/scout-go/internal/db"
	"github.com/raphaelgruber/scout-go/internal/episode"
	"github.com/raphaelgruber/scout-go/internal/models"
)

type fakeRunner struct {
	events []episode.Event
	err    error
}

func (f *fakeRunner) Run(_ context.Context, topicID, query string) (<-chan episode.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan episode.Event, len(f.events))
	for _, e := range f.events {
		ch <- e
	}
	close(ch)
	return ch, nil
}

type fakeEvolutions struct {
	entries  []models.EvolutionLogEntry
	gotLimit int
	err      error
}

func (f *fakeEvolutions) ListEvolutionEntries(_ context.Context, _ string, limit int) ([]models.EvolutionLogEntry, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func testServer(runner *fakeRunner, evolutions *fakeEvolutions) *Server {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(runner, evolutions, nil, logger, "test")
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(testServer(&fakeRunner{}, &fakeEvolutions{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestResearchStreamsSSE(t *testing.T) {
	runner := &fakeRunner{events: []episode.Event{
		{Type: episode.EventEpisodeCreated, EpisodeID: "ep1"},
		{Type: episode.EventPartial, Text: "hello"},
		{Type: episode.EventComplete, EpisodeID: "ep1"},
	}}
	srv := httptest.NewServer(testServer(runner, &fakeEvolutions{}).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/topics/raft/research", "application/json",
		strings.NewReader(`{"query":"how does raft work"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var got []episode.Event
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e episode.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e))
		got = append(got, e)
	}

	require.Len(t, got, 3)
	assert.Equal(t, episode.EventEpisodeCreated, got[0].Type)
	assert.Equal(t, "ep1", got[0].EpisodeID)
	assert.Equal(t, "hello", got[1].Text)
	assert.Equal(t, episode.EventComplete, got[2].Type)
}

func TestResearchValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"empty query", episode.ErrEmptyQuery, http.StatusBadRequest},
		{"unknown topic", db.ErrNotFound, http.StatusNotFound},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(testServer(&fakeRunner{err: tt.err}, &fakeEvolutions{}).Handler())
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/api/topics/raft/research", "application/json",
				strings.NewReader(`{"query":"q"}`))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestResearchRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(testServer(&fakeRunner{}, &fakeEvolutions{}).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/topics/raft/research", "application/json",
		strings.NewReader(`{not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEvolutions(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	evolutions := &fakeEvolutions{entries: []models.EvolutionLogEntry{
		{FromVersion: 2, ToVersion: 3, Reason: "low save rate 0.30", Created: now,
			Changes: &models.StrategyDiff{Before: models.DefaultConfig(), After: models.DefaultConfig()}},
		{FromVersion: 1, ToVersion: 2, Reason: "continuous improvement", Created: now.Add(-time.Hour)},
	}}
	srv := httptest.NewServer(testServer(&fakeRunner{}, evolutions).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/topics/raft/evolutions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)

	assert.Equal(t, float64(2), got[0]["fromVersion"])
	assert.Equal(t, float64(3), got[0]["toVersion"])
	assert.NotNil(t, got[0]["changes"])
	assert.Nil(t, got[1]["changes"], "missing diffs serialize as null, not omitted")
	assert.Equal(t, 0, evolutions.gotLimit, "no recent flag means no cap")
}

func TestEvolutionsRecentCapsAtFive(t *testing.T) {
	var entries []models.EvolutionLogEntry
	for i := 7; i > 0; i-- {
		entries = append(entries, models.EvolutionLogEntry{FromVersion: i, ToVersion: i + 1})
	}
	evolutions := &fakeEvolutions{entries: entries}
	srv := httptest.NewServer(testServer(&fakeRunner{}, evolutions).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/topics/raft/evolutions?recent=true")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got, 5)
	assert.Equal(t, recentLimit, evolutions.gotLimit)
}

func TestStatsDisabledWithoutCollector(t *testing.T) {
	srv := httptest.NewServer(testServer(&fakeRunner{}, &fakeEvolutions{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResearchWS(t *testing.T) {
	runner := &fakeRunner{events: []episode.Event{
		{Type: episode.EventEpisodeCreated, EpisodeID: "ep1"},
		{Type: episode.EventComplete, EpisodeID: "ep1"},
	}}
	srv := httptest.NewServer(testServer(runner, &fakeEvolutions{}).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/topics/raft/research?query=q"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	var first episode.Event
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, episode.EventEpisodeCreated, first.Type)

	var last episode.Event
	require.NoError(t, conn.ReadJSON(&last))
	assert.Equal(t, episode.EventComplete, last.Type)
}

func TestResearchWSRejectsEmptyQuery(t *testing.T) {
	srv := httptest.NewServer(testServer(&fakeRunner{err: episode.ErrEmptyQuery}, &fakeEvolutions{}).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/topics/raft/research"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
