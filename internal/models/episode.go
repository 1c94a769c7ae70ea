package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// EpisodeStatus is the lifecycle state of a research episode.
type EpisodeStatus string

const (
	EpisodeStatusPending   EpisodeStatus = "pending"
	EpisodeStatusRunning   EpisodeStatus = "running"
	EpisodeStatusCompleted EpisodeStatus = "completed"
	EpisodeStatusFailed    EpisodeStatus = "failed"
)

// Terminal reports whether no further status transition is allowed.
func (s EpisodeStatus) Terminal() bool {
	return s == EpisodeStatusCompleted || s == EpisodeStatusFailed
}

// CanTransitionTo enforces the monotonic pending -> running -> {completed|failed}
// lifecycle. Terminal states accept no transition.
func (s EpisodeStatus) CanTransitionTo(next EpisodeStatus) bool {
	switch s {
	case EpisodeStatusPending:
		return next == EpisodeStatusRunning || next == EpisodeStatusCompleted || next == EpisodeStatusFailed
	case EpisodeStatusRunning:
		return next == EpisodeStatusCompleted || next == EpisodeStatusFailed
	default:
		return false
	}
}

// ToolUsage is one tool invocation observed during an episode, in call order.
type ToolUsage struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
	Result any            `json:"result,omitempty"`
}

// Episode is one executed research run against a topic and the strategy
// version that was active when it started.
type Episode struct {
	ID              surrealmodels.RecordID `json:"id"`
	TopicID         string                 `json:"topic_id"`
	Query           string                 `json:"query"`
	StrategyVersion int                    `json:"strategy_version"`
	Status          EpisodeStatus          `json:"status"`
	SourcesReturned []string               `json:"sources_returned,omitempty"`
	SourcesSaved    []string               `json:"sources_saved,omitempty"`
	FollowupCount   int                    `json:"followup_count"`
	ToolUsage       []ToolUsage            `json:"tool_usage,omitempty"`
	ResultNoteID    *string                `json:"result_note_id,omitempty"`
	ErrorMessage    *string                `json:"error_message,omitempty"`
	Created         time.Time              `json:"created,omitempty"`
	Updated         time.Time              `json:"updated,omitempty"`
}

// SaveRate is the fraction of returned sources the user kept.
// Episodes that returned nothing count as 0, not as missing data.
func (e Episode) SaveRate() float64 {
	if len(e.SourcesReturned) == 0 {
		return 0
	}
	return float64(len(e.SourcesSaved)) / float64(len(e.SourcesReturned))
}

// UsedTool reports whether the episode's tool log references the given tool.
func (e Episode) UsedTool(tool string) bool {
	for _, u := range e.ToolUsage {
		if u.Tool == tool {
			return true
		}
	}
	return false
}
