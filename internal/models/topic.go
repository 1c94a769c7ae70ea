// Package models defines data structures for the Scout research service.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Topic is a research subject that episodes run against.
type Topic struct {
	ID                     surrealmodels.RecordID `json:"id"`
	Name                   string                 `json:"name"`
	Description            *string                `json:"description,omitempty"`
	DefaultStrategyVersion int                    `json:"default_strategy_version"`
	Created                time.Time              `json:"created,omitempty"`
}
