package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/scout-go/internal/models"
)

// NoteSearcher is the slice of the note store the senso tool needs.
type NoteSearcher interface {
	SearchNotes(ctx context.Context, topicID, query string, limit int) ([]models.Note, error)
}

// sensoResultLimit caps how many memory hits go back to the model per call.
const sensoResultLimit = 5

// NewSensoTool returns the executor for the long-term memory tool, backed by
// the notes produced by earlier episodes of the same topic.
func NewSensoTool(notes NoteSearcher) ToolFunc {
	return func(ctx context.Context, rc RunContext, args map[string]any) (any, error) {
		query, _ := args["query"].(string)
		if strings.TrimSpace(query) == "" {
			return nil, fmt.Errorf("senso query must not be empty")
		}

		hits, err := notes.SearchNotes(ctx, rc.TopicID, query, sensoResultLimit)
		if err != nil {
			return nil, fmt.Errorf("search notes: %w", err)
		}

		memories := make([]map[string]any, 0, len(hits))
		for _, n := range hits {
			memories = append(memories, map[string]any{
				"title":   n.Title,
				"content": n.Content,
				"created": n.Created,
			})
		}
		return map[string]any{"memories": memories, "count": len(memories)}, nil
	}
}
