package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/scout-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// InsertEvolutionEntry appends one audit record to the evolution log.
// Entries are never updated or deleted.
func (c *Client) InsertEvolutionEntry(
	ctx context.Context,
	id string,
	topicID string,
	fromVersion, toVersion int,
	reason string,
	changes *models.StrategyDiff,
) (*models.EvolutionLogEntry, error) {
	results, err := surrealdb.Query[[]models.EvolutionLogEntry](ctx, c.db, `
		CREATE type::record("evolution_log", $id) CONTENT {
			topic_id: $topic_id,
			from_version: $from_version,
			to_version: $to_version,
			reason: $reason,
			changes: $changes
		}
	`, map[string]any{
		"id":           id,
		"topic_id":     topicID,
		"from_version": fromVersion,
		"to_version":   toVersion,
		"reason":       reason,
		"changes":      changes,
	})
	if err != nil {
		return nil, fmt.Errorf("insert evolution entry: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("insert evolution entry: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// ListEvolutionEntries returns a topic's evolution log, newest first,
// capped to limit when limit > 0.
func (c *Client) ListEvolutionEntries(ctx context.Context, topicID string, limit int) ([]models.EvolutionLogEntry, error) {
	sql := `
		SELECT * FROM evolution_log
		WHERE topic_id = $topic_id
		ORDER BY created DESC
	`
	vars := map[string]any{"topic_id": topicID}
	if limit > 0 {
		sql += " LIMIT $limit"
		vars["limit"] = limit
	}

	results, err := surrealdb.Query[[]models.EvolutionLogEntry](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("list evolution entries: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.EvolutionLogEntry{}, nil
	}
	return (*results)[0].Result, nil
}
