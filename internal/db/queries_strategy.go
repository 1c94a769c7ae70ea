package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/scout-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// GetActiveStrategy returns the single active strategy version for a topic,
// or ErrNotFound when the topic has no versions yet.
func (c *Client) GetActiveStrategy(ctx context.Context, topicID string) (*models.Strategy, error) {
	results, err := surrealdb.Query[[]models.Strategy](ctx, c.db, `
		SELECT * FROM strategy
		WHERE topic_id = $topic_id AND status = "active"
		LIMIT 1
	`, map[string]any{"topic_id": topicID})
	if err != nil {
		return nil, fmt.Errorf("get active strategy: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("active strategy for topic %q: %w", topicID, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// GetStrategyByVersion returns a specific strategy version for a topic.
func (c *Client) GetStrategyByVersion(ctx context.Context, topicID string, version int) (*models.Strategy, error) {
	results, err := surrealdb.Query[[]models.Strategy](ctx, c.db, `
		SELECT * FROM strategy
		WHERE topic_id = $topic_id AND version = $version
		LIMIT 1
	`, map[string]any{"topic_id": topicID, "version": version})
	if err != nil {
		return nil, fmt.Errorf("get strategy version: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("strategy v%d for topic %q: %w", version, topicID, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// ListStrategies returns all strategy versions for a topic, newest first.
func (c *Client) ListStrategies(ctx context.Context, topicID string) ([]models.Strategy, error) {
	results, err := surrealdb.Query[[]models.Strategy](ctx, c.db, `
		SELECT * FROM strategy
		WHERE topic_id = $topic_id
		ORDER BY version DESC
	`, map[string]any{"topic_id": topicID})
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Strategy{}, nil
	}
	return (*results)[0].Result, nil
}

// InsertStrategyVersion creates a new strategy version in a single
// transaction: the version number is assigned as max(existing)+1 (or
// startVersion when the topic has none), and when the new version is created
// active the prior active version is retired in the same transaction, so two
// versions never observe status=active together. The unique
// (topic_id, version) index turns a lost race into ErrAlreadyExists or
// ErrTransactionConflict, which the strategy store retries.
func (c *Client) InsertStrategyVersion(
	ctx context.Context,
	id string,
	topicID string,
	config models.StrategyConfig,
	parentVersion *int,
	status models.StrategyStatus,
	rolloutPercentage int,
	startVersion int,
) (*models.Strategy, error) {
	results, err := surrealdb.Query[[]models.Strategy](ctx, c.db, `
		BEGIN TRANSACTION;

		LET $versions = (SELECT VALUE version FROM strategy WHERE topic_id = $topic_id);
		LET $next = IF array::len($versions) == 0 { $start } ELSE { math::max($versions) + 1 };

		IF $status == "active" {
			UPDATE strategy SET status = "retired"
			WHERE topic_id = $topic_id AND status = "active";
		};

		CREATE type::record("strategy", $id) CONTENT {
			topic_id: $topic_id,
			version: $next,
			status: $status,
			rollout_percentage: $rollout,
			parent_version: $parent,
			config: $config
		};

		COMMIT TRANSACTION;

		SELECT * FROM type::record("strategy", $id);
	`, map[string]any{
		"id":       id,
		"topic_id": topicID,
		"status":   string(status),
		"rollout":  rolloutPercentage,
		"parent":   parentVersion,
		"config":   config,
		"start":    startVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("insert strategy version: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return nil, fmt.Errorf("insert strategy version: empty result")
	}
	// The SELECT after COMMIT is the last statement in the batch.
	last := (*results)[len(*results)-1]
	if len(last.Result) == 0 {
		return nil, fmt.Errorf("insert strategy version: created record not found")
	}
	return &last.Result[0], nil
}
