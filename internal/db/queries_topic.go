package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/scout-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// CreateTopic inserts a new topic with the given id.
func (c *Client) CreateTopic(ctx context.Context, id, name string, description *string) (*models.Topic, error) {
	results, err := surrealdb.Query[[]models.Topic](ctx, c.db, `
		CREATE type::record("topic", $id) CONTENT {
			name: $name,
			description: $description,
			default_strategy_version: 1
		}
	`, map[string]any{
		"id":          id,
		"name":        name,
		"description": description,
	})
	if err != nil {
		return nil, fmt.Errorf("create topic: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create topic: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// GetTopic retrieves a topic by ID. Returns ErrNotFound if absent.
func (c *Client) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	results, err := surrealdb.Query[[]models.Topic](ctx, c.db, `
		SELECT * FROM type::record("topic", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("topic %q: %w", id, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// ListTopics returns all topics, newest first.
func (c *Client) ListTopics(ctx context.Context) ([]models.Topic, error) {
	results, err := surrealdb.Query[[]models.Topic](ctx, c.db, `
		SELECT * FROM topic ORDER BY created DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Topic{}, nil
	}
	return (*results)[0].Result, nil
}
