package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/scout-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// EpisodeOutcome carries the fields written together with a terminal status
// transition. All fields are optional; nil slices leave the stored value
// unchanged.
type EpisodeOutcome struct {
	SourcesReturned []string
	SourcesSaved    []string
	FollowupCount   *int
	ToolUsage       []models.ToolUsage
	ResultNoteID    *string
	ErrorMessage    *string
}

// CreateEpisode inserts a new pending episode and returns it.
func (c *Client) CreateEpisode(ctx context.Context, id, topicID, query string, strategyVersion int) (*models.Episode, error) {
	results, err := surrealdb.Query[[]models.Episode](ctx, c.db, `
		CREATE type::record("episode", $id) CONTENT {
			topic_id: $topic_id,
			query: $query,
			strategy_version: $strategy_version,
			status: "pending"
		}
	`, map[string]any{
		"id":               id,
		"topic_id":         topicID,
		"query":            query,
		"strategy_version": strategyVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create episode: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create episode: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// GetEpisode retrieves an episode by ID. Returns ErrNotFound if absent.
func (c *Client) GetEpisode(ctx context.Context, id string) (*models.Episode, error) {
	results, err := surrealdb.Query[[]models.Episode](ctx, c.db, `
		SELECT * FROM type::record("episode", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("episode %q: %w", id, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// UpdateEpisodeStatus transitions an episode's status, optionally writing the
// outcome fields that accompany a terminal transition. Transitions that would
// regress the pending -> running -> {completed|failed} lifecycle are rejected
// with ErrInvalidTransition, so terminal episodes stay frozen.
func (c *Client) UpdateEpisodeStatus(ctx context.Context, id string, status models.EpisodeStatus, outcome *EpisodeOutcome) error {
	current, err := c.GetEpisode(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(status) {
		return fmt.Errorf("episode %q: %s -> %s: %w", id, current.Status, status, ErrInvalidTransition)
	}

	set := `status = $status, updated = time::now()`
	vars := map[string]any{
		"id":     id,
		"status": string(status),
	}

	if outcome != nil {
		if outcome.SourcesReturned != nil {
			set += `, sources_returned = $sources_returned`
			vars["sources_returned"] = outcome.SourcesReturned
		}
		if outcome.SourcesSaved != nil {
			set += `, sources_saved = $sources_saved`
			vars["sources_saved"] = outcome.SourcesSaved
		}
		if outcome.FollowupCount != nil {
			set += `, followup_count = $followup_count`
			vars["followup_count"] = *outcome.FollowupCount
		}
		if outcome.ToolUsage != nil {
			set += `, tool_usage = $tool_usage`
			vars["tool_usage"] = outcome.ToolUsage
		}
		if outcome.ResultNoteID != nil {
			set += `, result_note_id = $result_note_id`
			vars["result_note_id"] = *outcome.ResultNoteID
		}
		if outcome.ErrorMessage != nil {
			set += `, error_message = $error_message`
			vars["error_message"] = *outcome.ErrorMessage
		}
	}

	sql := fmt.Sprintf(`UPDATE type::record("episode", $id) SET %s`, set)
	if _, err := surrealdb.Query[any](ctx, c.db, sql, vars); err != nil {
		return fmt.Errorf("update episode status: %w", wrapQueryError(err))
	}
	return nil
}

// MarkSourcesSaved records which returned sources the user chose to keep.
func (c *Client) MarkSourcesSaved(ctx context.Context, id string, saved []string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("episode", $id) SET
			sources_saved = $saved,
			updated = time::now()
	`, map[string]any{"id": id, "saved": saved})
	if err != nil {
		return fmt.Errorf("mark sources saved: %w", err)
	}
	return nil
}

// ListEpisodesByStrategy returns every episode for a (topic, strategy version)
// pair, oldest first.
func (c *Client) ListEpisodesByStrategy(ctx context.Context, topicID string, strategyVersion int) ([]models.Episode, error) {
	results, err := surrealdb.Query[[]models.Episode](ctx, c.db, `
		SELECT * FROM episode
		WHERE topic_id = $topic_id AND strategy_version = $strategy_version
		ORDER BY created ASC
	`, map[string]any{
		"topic_id":         topicID,
		"strategy_version": strategyVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Episode{}, nil
	}
	return (*results)[0].Result, nil
}
