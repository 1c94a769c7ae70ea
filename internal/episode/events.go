// Package episode runs research episodes: it executes the agent against a
// topic's active strategy and exposes the run as an ordered event stream.
package episode

import "github.com/raphaelgruber/scout-go/internal/agent"

// EventType discriminates the canonical event payloads.
type EventType string

const (
	EventEpisodeCreated    EventType = "episode_created"
	EventStatus            EventType = "status"
	EventPartial           EventType = "partial"
	EventToolCall          EventType = "tool_call"
	EventToolResult        EventType = "tool_result"
	EventSearchResults     EventType = "search_results"
	EventEvaluationResults EventType = "evaluation_results"
	EventLearningExtracted EventType = "learning_extracted"
	EventNoteCreated       EventType = "note_created"
	EventComplete          EventType = "complete"
	EventError             EventType = "error"
)

// Status messages carried by status events.
const (
	StatusInitializing = "initializing"
	StatusSearching    = "searching"
	StatusEvaluating   = "evaluating"
	StatusExtracting   = "extracting"
	StatusSaving       = "saving"
)

// Event is one frame of an episode's canonical stream. Only the fields
// relevant to the event's type are set.
type Event struct {
	Type        EventType                `json:"type"`
	EpisodeID   string                   `json:"episode_id,omitempty"`
	Status      string                   `json:"status,omitempty"`
	Text        string                   `json:"text,omitempty"`
	Tool        string                   `json:"tool,omitempty"`
	Args        map[string]any           `json:"args,omitempty"`
	Output      any                      `json:"output,omitempty"`
	Results     []agent.SearchResult     `json:"results,omitempty"`
	Evaluations []agent.SourceEvaluation `json:"evaluations,omitempty"`
	Learnings   []string                 `json:"learnings,omitempty"`
	NoteID      string                   `json:"note_id,omitempty"`
	Error       string                   `json:"error,omitempty"`
}
