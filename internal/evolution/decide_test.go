package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/scout-go/internal/models"
)

func aggMetrics(episodes int, saveRate, followups, sensoRate float64) models.AggregatedMetrics {
	return models.AggregatedMetrics{
		TotalEpisodes:    episodes,
		AvgSaveRate:      saveRate,
		AvgFollowupCount: followups,
		SensoUsageRate:   sensoRate,
	}
}

func TestDecideInsufficientData(t *testing.T) {
	d := Decide(aggMetrics(2, 0, 0, 0), models.DefaultConfig(), nil, 3)

	assert.False(t, d.ShouldEvolve)
	assert.Contains(t, d.Reason, "insufficient data")
	assert.Nil(t, d.Next)
}

func TestDecideZeroSaveRateTakesPrecedence(t *testing.T) {
	// Zero is also < 0.6, but the dedicated rule supplies the reason.
	d := Decide(aggMetrics(3, 0, 1, 1), models.DefaultConfig(), nil, 1)

	require.True(t, d.ShouldEvolve)
	assert.Equal(t, "no sources saved, immediate evolution needed", d.Reason)
	require.NotNil(t, d.Next)
	assert.False(t, d.Next.ToolEnabled(models.ToolEvaluateSources), "zero save rate drops the evaluation tool")
}

func TestDecideLowSaveRate(t *testing.T) {
	d := Decide(aggMetrics(3, 0.3, 1, 1), models.DefaultConfig(), nil, 1)

	require.True(t, d.ShouldEvolve)
	assert.Contains(t, d.Reason, "low save rate")
}

func TestDecideExcessiveFollowups(t *testing.T) {
	d := Decide(aggMetrics(3, 0.8, 7, 1), models.DefaultConfig(), nil, 1)

	require.True(t, d.ShouldEvolve)
	assert.Contains(t, d.Reason, "follow-ups")
}

func TestDecideStrongPerformanceKeeps(t *testing.T) {
	d := Decide(aggMetrics(10, 0.9, 2, 1), models.DefaultConfig(), nil, 1)

	assert.False(t, d.ShouldEvolve)
	assert.Contains(t, d.Reason, "strong performance")
	assert.Nil(t, d.Next)
}

func TestDecideRollbackRecommendationIsInformational(t *testing.T) {
	parent := 2
	d := Decide(aggMetrics(3, 0, 1, 1), models.DefaultConfig(), &parent, 1)

	assert.True(t, d.RecommendRollback)
	assert.True(t, d.ShouldEvolve, "the wired action is still evolve")

	root := Decide(aggMetrics(3, 0, 1, 1), models.DefaultConfig(), nil, 1)
	assert.False(t, root.RecommendRollback, "root versions have nothing to roll back to")
}

func TestDeriveModelTier(t *testing.T) {
	cfg := models.DefaultConfig() // balanced

	up := derive(aggMetrics(3, 0.4, 1, 1), cfg)
	assert.Equal(t, models.ModelTierDeep, up.ModelTier)

	down := derive(aggMetrics(3, 0.75, 1, 1), cfg)
	assert.Equal(t, models.ModelTierFast, down.ModelTier)

	cfg.ModelTier = models.ModelTierDeep
	capped := derive(aggMetrics(3, 0.4, 1, 1), cfg)
	assert.Equal(t, models.ModelTierDeep, capped.ModelTier, "deep has no further tier")
}

func TestDeriveSearchShape(t *testing.T) {
	cfg := models.DefaultConfig()

	// Very low save rate: deepen the search and widen the window.
	next := derive(aggMetrics(3, 0.3, 1, 1), cfg)
	assert.Equal(t, models.SearchDepthDeep, next.SearchDepth)
	assert.Equal(t, cfg.TimeWindowDays*2, next.TimeWindowDays)
	assert.False(t, next.ParallelSearch)

	// Excessive follow-ups: shallow search with a hard cap, in parallel.
	next = derive(aggMetrics(3, 0.8, 7, 1), cfg)
	assert.Equal(t, models.SearchDepthShallow, next.SearchDepth)
	assert.Equal(t, 3, next.MaxFollowups)
	assert.True(t, next.ParallelSearch)
}

func TestDeriveConflictingDepthRules(t *testing.T) {
	// Both the deepen rule and the shallow rule fire; the follow-up cap
	// rule is applied last and wins.
	next := derive(aggMetrics(3, 0.3, 7, 1), models.DefaultConfig())
	assert.Equal(t, models.SearchDepthShallow, next.SearchDepth)
	assert.Equal(t, models.DefaultConfig().TimeWindowDays*2, next.TimeWindowDays)
}

func TestDeriveSensoFirst(t *testing.T) {
	next := derive(aggMetrics(3, 0.3, 1, 0.1), models.DefaultConfig())
	assert.True(t, next.SensoFirst)

	next = derive(aggMetrics(3, 0.3, 1, 0.5), models.DefaultConfig())
	assert.False(t, next.SensoFirst)
}

func TestDeriveReenablesEvaluationTool(t *testing.T) {
	cfg := models.DefaultConfig().WithoutTool(models.ToolEvaluateSources)

	next := derive(aggMetrics(3, 0.65, 7, 1), cfg)
	assert.True(t, next.ToolEnabled(models.ToolEvaluateSources))
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	cfg := models.DefaultConfig()
	before := len(cfg.EnabledTools)

	_ = derive(aggMetrics(3, 0, 1, 0), cfg)
	assert.Len(t, cfg.EnabledTools, before)
	assert.NoError(t, cfg.Validate())
}
