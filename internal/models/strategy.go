package models

import (
	"fmt"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// StrategyStatus is the lifecycle state of a strategy version.
type StrategyStatus string

const (
	StrategyStatusActive    StrategyStatus = "active"
	StrategyStatusCandidate StrategyStatus = "candidate"
	StrategyStatusRetired   StrategyStatus = "retired"
)

// Search depth levels, ordered shallow < standard < deep.
const (
	SearchDepthShallow  = "shallow"
	SearchDepthStandard = "standard"
	SearchDepthDeep     = "deep"
)

// Summary styles for the result note.
const (
	SummaryStyleConcise  = "concise"
	SummaryStyleDetailed = "detailed"
	SummaryStyleBullets  = "bullets"
)

// Model tiers, ordered fast < balanced < deep. The llm package maps
// tiers onto concrete provider models.
const (
	ModelTierFast     = "fast"
	ModelTierBalanced = "balanced"
	ModelTierDeep     = "deep"
)

// Research tool names shared by the agent, the event translator, and the
// evolution engine.
const (
	ToolWebSearch        = "web_search"
	ToolEvaluateSources  = "evaluate_sources"
	ToolExtractLearnings = "extract_learnings"
	ToolSensoQuery       = "senso_query"
)

// StrategyConfig is the typed execution configuration carried by a strategy
// version. Versions are immutable: evolution produces a new config, never an
// in-place edit.
type StrategyConfig struct {
	SearchDepth    string   `json:"search_depth" yaml:"search_depth"`
	TimeWindowDays int      `json:"time_window_days" yaml:"time_window_days"`
	SummaryStyle   string   `json:"summary_style" yaml:"summary_style"`
	ModelTier      string   `json:"model_tier" yaml:"model_tier"`
	EnabledTools   []string `json:"enabled_tools" yaml:"enabled_tools"`
	MaxFollowups   int      `json:"max_followups" yaml:"max_followups"`
	ParallelSearch bool     `json:"parallel_search" yaml:"parallel_search"`
	SensoFirst     bool     `json:"senso_first" yaml:"senso_first"`
}

// DefaultConfig is the built-in configuration used when a topic has no
// strategy version yet, or when a stored config fails validation.
func DefaultConfig() StrategyConfig {
	return StrategyConfig{
		SearchDepth:    SearchDepthStandard,
		TimeWindowDays: 30,
		SummaryStyle:   SummaryStyleConcise,
		ModelTier:      ModelTierBalanced,
		EnabledTools: []string{
			ToolWebSearch,
			ToolEvaluateSources,
			ToolExtractLearnings,
			ToolSensoQuery,
		},
		MaxFollowups:   5,
		ParallelSearch: false,
		SensoFirst:     false,
	}
}

// Validate checks field domains. The strategy store treats a validation
// failure as "fall back to DefaultConfig", never as an episode failure.
func (c StrategyConfig) Validate() error {
	switch c.SearchDepth {
	case SearchDepthShallow, SearchDepthStandard, SearchDepthDeep:
	default:
		return fmt.Errorf("invalid search depth %q", c.SearchDepth)
	}
	switch c.SummaryStyle {
	case SummaryStyleConcise, SummaryStyleDetailed, SummaryStyleBullets:
	default:
		return fmt.Errorf("invalid summary style %q", c.SummaryStyle)
	}
	switch c.ModelTier {
	case ModelTierFast, ModelTierBalanced, ModelTierDeep:
	default:
		return fmt.Errorf("invalid model tier %q", c.ModelTier)
	}
	if c.TimeWindowDays <= 0 {
		return fmt.Errorf("time window must be positive, got %d", c.TimeWindowDays)
	}
	if c.MaxFollowups < 0 {
		return fmt.Errorf("max followups must be non-negative, got %d", c.MaxFollowups)
	}
	if len(c.EnabledTools) == 0 {
		return fmt.Errorf("at least one tool must be enabled")
	}
	return nil
}

// ToolEnabled reports whether a tool is in the enabled set.
func (c StrategyConfig) ToolEnabled(tool string) bool {
	for _, t := range c.EnabledTools {
		if t == tool {
			return true
		}
	}
	return false
}

// WithTool returns a copy of the config with the tool added (no-op if present).
func (c StrategyConfig) WithTool(tool string) StrategyConfig {
	if c.ToolEnabled(tool) {
		return c
	}
	tools := make([]string, len(c.EnabledTools), len(c.EnabledTools)+1)
	copy(tools, c.EnabledTools)
	c.EnabledTools = append(tools, tool)
	return c
}

// WithoutTool returns a copy of the config with the tool removed.
func (c StrategyConfig) WithoutTool(tool string) StrategyConfig {
	tools := make([]string, 0, len(c.EnabledTools))
	for _, t := range c.EnabledTools {
		if t != tool {
			tools = append(tools, t)
		}
	}
	c.EnabledTools = tools
	return c
}

// Strategy is an immutable, numbered configuration snapshot for a topic.
type Strategy struct {
	ID                surrealmodels.RecordID `json:"id"`
	TopicID           string                 `json:"topic_id"`
	Version           int                    `json:"version"`
	Status            StrategyStatus         `json:"status"`
	RolloutPercentage int                    `json:"rollout_percentage"`
	ParentVersion     *int                   `json:"parent_version,omitempty"`
	Config            StrategyConfig         `json:"config"`
	Created           time.Time              `json:"created,omitempty"`
}
