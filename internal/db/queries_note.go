package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/scout-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// CreateNote inserts a note produced by a completed episode.
func (c *Client) CreateNote(ctx context.Context, id, topicID, title, content, noteType string) (*models.Note, error) {
	results, err := surrealdb.Query[[]models.Note](ctx, c.db, `
		CREATE type::record("note", $id) CONTENT {
			topic_id: $topic_id,
			title: $title,
			content: $content,
			type: $type
		}
	`, map[string]any{
		"id":       id,
		"topic_id": topicID,
		"title":    title,
		"content":  content,
		"type":     noteType,
	})
	if err != nil {
		return nil, fmt.Errorf("create note: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create note: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// GetNote retrieves a note by ID. Returns ErrNotFound if absent.
func (c *Client) GetNote(ctx context.Context, id string) (*models.Note, error) {
	results, err := surrealdb.Query[[]models.Note](ctx, c.db, `
		SELECT * FROM type::record("note", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// SearchNotes returns a topic's notes matching the query by case-insensitive
// substring on title or content, newest first.
func (c *Client) SearchNotes(ctx context.Context, topicID, query string, limit int) ([]models.Note, error) {
	if limit <= 0 {
		limit = 5
	}
	results, err := surrealdb.Query[[]models.Note](ctx, c.db, `
		SELECT * FROM note
		WHERE topic_id = $topic_id
			AND (string::contains(string::lowercase(title), $q)
				OR string::contains(string::lowercase(content), $q))
		ORDER BY created DESC
		LIMIT $limit
	`, map[string]any{
		"topic_id": topicID,
		"q":        strings.ToLower(query),
		"limit":    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Note{}, nil
	}
	return (*results)[0].Result, nil
}
