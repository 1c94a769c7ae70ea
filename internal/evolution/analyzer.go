package evolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/scout-go/internal/db"
	"github.com/raphaelgruber/scout-go/internal/metrics"
	"github.com/raphaelgruber/scout-go/internal/models"
)

// EpisodeLister lists a strategy version's episode history.
type EpisodeLister interface {
	ListEpisodesByStrategy(ctx context.Context, topicID string, strategyVersion int) ([]models.Episode, error)
}

// VersionStore is the slice of the strategy store the analyzer needs.
type VersionStore interface {
	GetVersion(ctx context.Context, topicID string, version int) (*models.Strategy, error)
	CreateCandidate(ctx context.Context, topicID string, cfg models.StrategyConfig, parentVersion int) (*models.Strategy, error)
}

// EvolutionLog appends audit records for version transitions.
type EvolutionLog interface {
	InsertEvolutionEntry(ctx context.Context, id, topicID string, fromVersion, toVersion int, reason string, changes *models.StrategyDiff) (*models.EvolutionLogEntry, error)
}

// Analyzer runs post-episode strategy analysis as a detached background
// task. Dispatch is fire-and-forget and at-most-once: failures are logged
// and never retried, and a crash between episode completion and analysis
// completion loses that analysis run.
type Analyzer struct {
	episodes    EpisodeLister
	strategies  VersionStore
	log         EvolutionLog
	minEpisodes int
	collector   *metrics.Collector
	logger      *slog.Logger

	wg sync.WaitGroup
}

// NewAnalyzer creates an Analyzer. collector may be nil.
func NewAnalyzer(episodes EpisodeLister, strategies VersionStore, log EvolutionLog, minEpisodes int, collector *metrics.Collector, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		episodes:    episodes,
		strategies:  strategies,
		log:         log,
		minEpisodes: minEpisodes,
		collector:   collector,
		logger:      logger,
	}
}

// Enqueue dispatches an analysis pass for a (topic, strategy version) pair
// and returns immediately.
func (a *Analyzer) Enqueue(topicID string, strategyVersion int) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("analysis panicked", "topic_id", topicID, "strategy_version", strategyVersion, "panic", r)
			}
		}()

		start := time.Now()
		if err := a.analyze(context.Background(), topicID, strategyVersion); err != nil {
			a.logger.Error("analysis failed", "topic_id", topicID, "strategy_version", strategyVersion, "error", err)
		}
		if a.collector != nil {
			a.collector.RecordTiming(metrics.OpAnalysis, time.Since(start))
		}
	}()
}

// Wait blocks until all dispatched analysis passes finish.
func (a *Analyzer) Wait() {
	a.wg.Wait()
}

func (a *Analyzer) analyze(ctx context.Context, topicID string, strategyVersion int) error {
	episodes, err := a.episodes.ListEpisodesByStrategy(ctx, topicID, strategyVersion)
	if err != nil {
		return fmt.Errorf("list episodes: %w", err)
	}
	agg := Aggregate(episodes)

	// Episodes can run on the built-in default before any version is stored;
	// evolving from there still records the fallback version as the parent.
	current := models.DefaultConfig()
	var parent *int
	if stored, err := a.strategies.GetVersion(ctx, topicID, strategyVersion); err == nil {
		current = stored.Config
		parent = stored.ParentVersion
	} else if !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("load strategy: %w", err)
	}

	decision := Decide(agg, current, parent, a.minEpisodes)
	a.logger.Info("analysis decision",
		"topic_id", topicID,
		"strategy_version", strategyVersion,
		"episodes", agg.TotalEpisodes,
		"avg_save_rate", agg.AvgSaveRate,
		"avg_followups", agg.AvgFollowupCount,
		"should_evolve", decision.ShouldEvolve,
		"reason", decision.Reason)

	if decision.RecommendRollback {
		// Recommendation only. No rollback action exists.
		a.logger.Warn("rollback recommended", "topic_id", topicID, "strategy_version", strategyVersion)
	}
	if !decision.ShouldEvolve {
		return nil
	}

	created, err := a.strategies.CreateCandidate(ctx, topicID, *decision.Next, strategyVersion)
	if err != nil {
		return fmt.Errorf("create candidate: %w", err)
	}

	diff := &models.StrategyDiff{
		Before:  current,
		After:   *decision.Next,
		Metrics: agg,
	}
	if _, err := a.log.InsertEvolutionEntry(ctx, uuid.New().String()[:8], topicID, strategyVersion, created.Version, decision.Reason, diff); err != nil {
		return fmt.Errorf("record evolution: %w", err)
	}

	a.logger.Info("strategy evolved",
		"topic_id", topicID,
		"from_version", strategyVersion,
		"to_version", created.Version,
		"reason", decision.Reason)
	return nil
}
