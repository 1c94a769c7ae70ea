package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StrategyConfig)
	}{
		{"bad search depth", func(c *StrategyConfig) { c.SearchDepth = "bottomless" }},
		{"bad summary style", func(c *StrategyConfig) { c.SummaryStyle = "haiku" }},
		{"bad model tier", func(c *StrategyConfig) { c.ModelTier = "gigantic" }},
		{"zero time window", func(c *StrategyConfig) { c.TimeWindowDays = 0 }},
		{"negative followups", func(c *StrategyConfig) { c.MaxFollowups = -1 }},
		{"no tools", func(c *StrategyConfig) { c.EnabledTools = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigToolSetCopies(t *testing.T) {
	cfg := DefaultConfig()

	dropped := cfg.WithoutTool(ToolEvaluateSources)
	assert.False(t, dropped.ToolEnabled(ToolEvaluateSources))
	// The original must be untouched: configs are immutable snapshots.
	assert.True(t, cfg.ToolEnabled(ToolEvaluateSources))

	restored := dropped.WithTool(ToolEvaluateSources)
	assert.True(t, restored.ToolEnabled(ToolEvaluateSources))
	assert.False(t, dropped.ToolEnabled(ToolEvaluateSources))

	// Adding an already-enabled tool does not duplicate it.
	same := cfg.WithTool(ToolWebSearch)
	assert.Equal(t, len(cfg.EnabledTools), len(same.EnabledTools))
}
