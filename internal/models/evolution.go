package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// AggregatedMetrics is the per-(topic, strategy version) rollup of episode
// outcomes. Derived on demand from the episode set, never persisted alone.
type AggregatedMetrics struct {
	TotalEpisodes    int     `json:"total_episodes"`
	AvgSaveRate      float64 `json:"avg_save_rate"`
	AvgFollowupCount float64 `json:"avg_followup_count"`
	SensoUsageRate   float64 `json:"senso_usage_rate"`
}

// StrategyDiff captures what an evolution changed and why.
type StrategyDiff struct {
	Before  StrategyConfig    `json:"before"`
	After   StrategyConfig    `json:"after"`
	Metrics AggregatedMetrics `json:"metrics"`
}

// EvolutionLogEntry is one append-only audit record of a version transition.
// Never mutated or deleted after creation.
type EvolutionLogEntry struct {
	ID          surrealmodels.RecordID `json:"id"`
	TopicID     string                 `json:"topic_id"`
	FromVersion int                    `json:"from_version"`
	ToVersion   int                    `json:"to_version"`
	Reason      string                 `json:"reason"`
	Changes     *StrategyDiff          `json:"changes,omitempty"`
	Created     time.Time              `json:"created,omitempty"`
}
