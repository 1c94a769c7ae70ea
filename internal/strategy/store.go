// Package strategy manages the versioned, immutable strategy configs that
// episodes run under. Versions are only ever appended; evolution creates a
// new candidate version instead of editing the active one.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/raphaelgruber/scout-go/internal/db"
	"github.com/raphaelgruber/scout-go/internal/models"
)

// Repo is the slice of the database client the store needs.
type Repo interface {
	GetActiveStrategy(ctx context.Context, topicID string) (*models.Strategy, error)
	GetStrategyByVersion(ctx context.Context, topicID string, version int) (*models.Strategy, error)
	ListStrategies(ctx context.Context, topicID string) ([]models.Strategy, error)
	InsertStrategyVersion(ctx context.Context, id, topicID string, config models.StrategyConfig, parentVersion *int, status models.StrategyStatus, rolloutPercentage, startVersion int) (*models.Strategy, error)
}

// insertRetries caps retries on version-number races with writers in other
// processes. In-process writers are already serialized per topic.
const insertRetries = 3

// Store serializes strategy writes per topic and applies config validation
// with default fallback at the read boundary.
type Store struct {
	repo             Repo
	candidateRollout int
	logger           *slog.Logger

	mu     sync.Mutex
	topics map[string]*sync.Mutex
}

// NewStore creates a Store. candidateRollout is the rollout percentage given
// to newly evolved candidate versions.
func NewStore(repo Repo, candidateRollout int, logger *slog.Logger) *Store {
	return &Store{
		repo:             repo,
		candidateRollout: candidateRollout,
		logger:           logger,
		topics:           make(map[string]*sync.Mutex),
	}
}

func (s *Store) topicLock(topicID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.topics[topicID]
	if !ok {
		l = &sync.Mutex{}
		s.topics[topicID] = l
	}
	return l
}

// GetActive returns the topic's active strategy, or db.ErrNotFound when the
// topic has no versions yet.
func (s *Store) GetActive(ctx context.Context, topicID string) (*models.Strategy, error) {
	return s.repo.GetActiveStrategy(ctx, topicID)
}

// GetVersion returns a specific strategy version for a topic.
func (s *Store) GetVersion(ctx context.Context, topicID string, version int) (*models.Strategy, error) {
	return s.repo.GetStrategyByVersion(ctx, topicID, version)
}

// List returns all of a topic's versions, newest first.
func (s *Store) List(ctx context.Context, topicID string) ([]models.Strategy, error) {
	return s.repo.ListStrategies(ctx, topicID)
}

// ActiveConfig resolves the effective config and version for a topic. Topics
// without any stored strategy get the built-in default at fallbackVersion. A
// stored config that fails validation is replaced by the default, keeping its
// version number, so a bad write never aborts an episode.
func (s *Store) ActiveConfig(ctx context.Context, topicID string, fallbackVersion int) (models.StrategyConfig, int, error) {
	active, err := s.repo.GetActiveStrategy(ctx, topicID)
	if errors.Is(err, db.ErrNotFound) {
		return models.DefaultConfig(), fallbackVersion, nil
	}
	if err != nil {
		return models.StrategyConfig{}, 0, err
	}

	if verr := active.Config.Validate(); verr != nil {
		s.logger.Warn("stored strategy config invalid, using default",
			"topic_id", topicID, "version", active.Version, "error", verr)
		return models.DefaultConfig(), active.Version, nil
	}
	return active.Config, active.Version, nil
}

// CreateVersion appends a new strategy version with version = max(existing)+1.
// When status is active, the prior active version is retired atomically in
// the same transaction.
func (s *Store) CreateVersion(ctx context.Context, topicID string, cfg models.StrategyConfig, parentVersion *int, status models.StrategyStatus, rolloutPercentage int) (*models.Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy config: %w", err)
	}

	lock := s.topicLock(topicID)
	lock.Lock()
	defer lock.Unlock()

	// A fresh topic's episodes run on an unstored fallback version (the
	// topic's default), so the first insert must still land past the parent
	// to keep version numbers strictly increasing.
	startVersion := 1
	if parentVersion != nil {
		startVersion = *parentVersion + 1
	}

	var lastErr error
	for attempt := 0; attempt < insertRetries; attempt++ {
		id := uuid.New().String()[:8]
		created, err := s.repo.InsertStrategyVersion(ctx, id, topicID, cfg, parentVersion, status, rolloutPercentage, startVersion)
		if err == nil {
			s.logger.Info("strategy version created",
				"topic_id", topicID, "version", created.Version, "status", created.Status)
			return created, nil
		}
		if !errors.Is(err, db.ErrAlreadyExists) && !errors.Is(err, db.ErrTransactionConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("strategy insert conflict, retrying", "topic_id", topicID, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("create strategy version for topic %q: %w", topicID, lastErr)
}

// CreateCandidate appends an evolved config as a candidate version with the
// store's configured partial rollout.
func (s *Store) CreateCandidate(ctx context.Context, topicID string, cfg models.StrategyConfig, parentVersion int) (*models.Strategy, error) {
	return s.CreateVersion(ctx, topicID, cfg, &parentVersion, models.StrategyStatusCandidate, s.candidateRollout)
}
