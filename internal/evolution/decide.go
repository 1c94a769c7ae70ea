package evolution

import (
	"fmt"

	"github.com/raphaelgruber/scout-go/internal/models"
)

// Decision is the outcome of evaluating a strategy version's metrics.
// Next is set only when ShouldEvolve is true.
//
// RecommendRollback is informational: it flags an evolved version that
// performs catastrophically against its parent, but nothing acts on it.
// Only keep and evolve are wired to state changes.
type Decision struct {
	ShouldEvolve      bool
	Reason            string
	Next              *models.StrategyConfig
	RecommendRollback bool
}

// Decide evaluates the ordered rule list against a version's aggregated
// metrics. parentVersion is the version the config evolved from, nil for
// root versions. Pure: no clock, no I/O.
func Decide(m models.AggregatedMetrics, current models.StrategyConfig, parentVersion *int, minEpisodes int) Decision {
	if m.TotalEpisodes < minEpisodes {
		return Decision{Reason: fmt.Sprintf("insufficient data: %d of %d episodes", m.TotalEpisodes, minEpisodes)}
	}

	d := Decision{
		RecommendRollback: parentVersion != nil && m.AvgSaveRate == 0,
	}

	switch {
	case m.AvgSaveRate == 0:
		d.ShouldEvolve = true
		d.Reason = "no sources saved, immediate evolution needed"
	case m.AvgSaveRate < 0.6:
		d.ShouldEvolve = true
		d.Reason = fmt.Sprintf("low save rate %.2f", m.AvgSaveRate)
	case m.AvgFollowupCount > 5:
		d.ShouldEvolve = true
		d.Reason = fmt.Sprintf("excessive follow-ups, avg %.1f", m.AvgFollowupCount)
	case m.AvgSaveRate >= 0.6 && m.AvgFollowupCount <= 5:
		d.Reason = fmt.Sprintf("strong performance: save rate %.2f, avg follow-ups %.1f", m.AvgSaveRate, m.AvgFollowupCount)
	default:
		d.ShouldEvolve = true
		d.Reason = "continuous improvement"
	}

	if d.ShouldEvolve {
		next := derive(m, current)
		d.Next = &next
	}
	return d
}

// derive applies the adjustment rules to produce the evolved config. Each
// rule checks its own threshold; several may fire together. Rules touching
// the same field are applied in declaration order, so later rules win.
func derive(m models.AggregatedMetrics, cfg models.StrategyConfig) models.StrategyConfig {
	next := cfg
	next.EnabledTools = append([]string(nil), cfg.EnabledTools...)

	if m.AvgSaveRate < 0.5 {
		next.ModelTier = tierUp(cfg.ModelTier)
	} else if m.AvgSaveRate > 0.7 {
		next.ModelTier = tierDown(cfg.ModelTier)
	}

	if m.AvgFollowupCount > 6 {
		next.ParallelSearch = true
	}
	if m.AvgSaveRate < 0.4 {
		next.ParallelSearch = false
	}

	if m.AvgSaveRate == 0 {
		next = next.WithoutTool(models.ToolEvaluateSources)
	} else if m.AvgSaveRate > 0.6 {
		next = next.WithTool(models.ToolEvaluateSources)
	}

	if m.AvgSaveRate < 0.4 {
		next.SearchDepth = deepen(next.SearchDepth)
		next.TimeWindowDays = cfg.TimeWindowDays * 2
	}

	if m.AvgFollowupCount > 5 {
		next.SearchDepth = models.SearchDepthShallow
		next.MaxFollowups = 3
	}

	if m.SensoUsageRate < 0.2 {
		next.SensoFirst = true
	}

	return next
}

func tierUp(tier string) string {
	switch tier {
	case models.ModelTierFast:
		return models.ModelTierBalanced
	case models.ModelTierBalanced:
		return models.ModelTierDeep
	default:
		return tier
	}
}

func tierDown(tier string) string {
	switch tier {
	case models.ModelTierDeep:
		return models.ModelTierBalanced
	case models.ModelTierBalanced:
		return models.ModelTierFast
	default:
		return tier
	}
}

func deepen(depth string) string {
	switch depth {
	case models.SearchDepthShallow:
		return models.SearchDepthStandard
	case models.SearchDepthStandard:
		return models.SearchDepthDeep
	default:
		return depth
	}
}
