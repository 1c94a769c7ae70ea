// Package client provides an HTTP client for the Scout server.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/scout-go/internal/episode"
	"github.com/raphaelgruber/scout-go/internal/models"
)

// Client talks to a running scout-server over its REST/SSE API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
// If baseURL is empty, uses SCOUT_SERVER_URL env var or defaults to localhost:8585.
// Timeout can be configured via SCOUT_CLIENT_TIMEOUT env var (default 30m,
// research streams stay open for the whole episode).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("SCOUT_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8585"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := 30 * time.Minute
	if t := os.Getenv("SCOUT_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type apiError struct {
	Error string `json:"error"`
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e apiError
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}

// Research starts an episode and invokes handle for every streamed event, in
// order. It returns once the stream closes or handle returns an error.
func (c *Client) Research(ctx context.Context, topicID, query string, handle func(episode.Event) error) error {
	reqBody, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/topics/%s/research", c.baseURL, url.PathEscape(topicID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e episode.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := handle(e); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// EvolutionEntry is one evolution-log record as served over the wire.
type EvolutionEntry struct {
	FromVersion int                  `json:"fromVersion"`
	ToVersion   int                  `json:"toVersion"`
	Reason      string               `json:"reason"`
	Timestamp   time.Time            `json:"timestamp"`
	Changes     *models.StrategyDiff `json:"changes"`
}

// Evolutions lists a topic's evolution log, newest first. With recent set,
// only the 5 most recent entries are returned.
func (c *Client) Evolutions(ctx context.Context, topicID string, recent bool) ([]EvolutionEntry, error) {
	endpoint := fmt.Sprintf("%s/api/topics/%s/evolutions", c.baseURL, url.PathEscape(topicID))
	if recent {
		endpoint += "?recent=true"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var entries []EvolutionEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return entries, nil
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}
