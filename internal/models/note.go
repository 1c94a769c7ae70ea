package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// NoteTypeResearch marks notes produced by a research episode.
const NoteTypeResearch = "research"

// Note is the persisted output of a completed episode.
type Note struct {
	ID      surrealmodels.RecordID `json:"id"`
	TopicID string                 `json:"topic_id"`
	Title   string                 `json:"title"`
	Content string                 `json:"content"`
	Type    string                 `json:"type"`
	Created time.Time              `json:"created,omitempty"`
}
