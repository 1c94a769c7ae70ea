package strategy

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/scout-go/internal/db"
	"github.com/raphaelgruber/scout-go/internal/models"
)

// memRepo mimics the database's transactional version assignment, including
// the unique (topic, version) index, and can inject conflicts to exercise
// the retry path.
type memRepo struct {
	mu         sync.Mutex
	strategies []models.Strategy
	conflicts  int
}

func (r *memRepo) GetActiveStrategy(_ context.Context, topicID string) (*models.Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.strategies {
		s := r.strategies[i]
		if s.TopicID == topicID && s.Status == models.StrategyStatusActive {
			return &s, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *memRepo) GetStrategyByVersion(_ context.Context, topicID string, version int) (*models.Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.strategies {
		s := r.strategies[i]
		if s.TopicID == topicID && s.Version == version {
			return &s, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *memRepo) ListStrategies(_ context.Context, topicID string) ([]models.Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Strategy
	for _, s := range r.strategies {
		if s.TopicID == topicID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memRepo) InsertStrategyVersion(_ context.Context, id, topicID string, config models.StrategyConfig, parentVersion *int, status models.StrategyStatus, rollout, startVersion int) (*models.Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflicts > 0 {
		r.conflicts--
		return nil, db.ErrTransactionConflict
	}

	next := 0
	for _, s := range r.strategies {
		if s.TopicID == topicID && s.Version > next {
			next = s.Version
		}
	}
	if next == 0 {
		next = startVersion
	} else {
		next++
	}

	if status == models.StrategyStatusActive {
		for i := range r.strategies {
			if r.strategies[i].TopicID == topicID && r.strategies[i].Status == models.StrategyStatusActive {
				r.strategies[i].Status = models.StrategyStatusRetired
			}
		}
	}

	created := models.Strategy{
		ID:                surrealmodels.NewRecordID("strategy", id),
		TopicID:           topicID,
		Version:           next,
		Status:            status,
		RolloutPercentage: rollout,
		ParentVersion:     parentVersion,
		Config:            config,
	}
	r.strategies = append(r.strategies, created)
	return &created, nil
}

func testStore(repo *memRepo) *Store {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewStore(repo, 20, logger)
}

func TestActiveConfigFallsBackToDefault(t *testing.T) {
	store := testStore(&memRepo{})

	cfg, version, err := store.ActiveConfig(context.Background(), "topic", 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultConfig(), cfg)
	assert.Equal(t, 1, version)
}

func TestActiveConfigReplacesInvalidConfig(t *testing.T) {
	repo := &memRepo{strategies: []models.Strategy{{
		TopicID: "topic",
		Version: 3,
		Status:  models.StrategyStatusActive,
		Config:  models.StrategyConfig{SearchDepth: "bottomless"},
	}}}
	store := testStore(repo)

	cfg, version, err := store.ActiveConfig(context.Background(), "topic", 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultConfig(), cfg)
	assert.Equal(t, 3, version, "the stored version number survives the fallback")
}

func TestCreateVersionAssignsSequentialVersions(t *testing.T) {
	repo := &memRepo{}
	store := testStore(repo)
	ctx := context.Background()

	first, err := store.CreateVersion(ctx, "topic", models.DefaultConfig(), nil, models.StrategyStatusActive, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := store.CreateVersion(ctx, "topic", models.DefaultConfig(), &first.Version, models.StrategyStatusActive, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	active, err := store.GetActive(ctx, "topic")
	require.NoError(t, err)
	assert.Equal(t, 2, active.Version, "creating an active version retires the prior one")
}

func TestCreateVersionRejectsInvalidConfig(t *testing.T) {
	store := testStore(&memRepo{})

	_, err := store.CreateVersion(context.Background(), "topic", models.StrategyConfig{}, nil, models.StrategyStatusActive, 100)
	require.Error(t, err)
}

func TestCreateVersionRetriesConflicts(t *testing.T) {
	repo := &memRepo{conflicts: 2}
	store := testStore(repo)

	created, err := store.CreateVersion(context.Background(), "topic", models.DefaultConfig(), nil, models.StrategyStatusActive, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)
}

func TestCreateVersionGivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := &memRepo{conflicts: insertRetries}
	store := testStore(repo)

	_, err := store.CreateVersion(context.Background(), "topic", models.DefaultConfig(), nil, models.StrategyStatusActive, 100)
	require.ErrorIs(t, err, db.ErrTransactionConflict)
}

func TestCreateCandidateUsesConfiguredRollout(t *testing.T) {
	repo := &memRepo{}
	store := testStore(repo)
	ctx := context.Background()

	_, err := store.CreateVersion(ctx, "topic", models.DefaultConfig(), nil, models.StrategyStatusActive, 100)
	require.NoError(t, err)

	cfg := models.DefaultConfig()
	cfg.SearchDepth = models.SearchDepthDeep
	candidate, err := store.CreateCandidate(ctx, "topic", cfg, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, candidate.Version)
	assert.Equal(t, models.StrategyStatusCandidate, candidate.Status)
	assert.Equal(t, 20, candidate.RolloutPercentage)
	require.NotNil(t, candidate.ParentVersion)
	assert.Equal(t, 1, *candidate.ParentVersion)

	// The active version is untouched by candidate creation.
	active, err := store.GetActive(ctx, "topic")
	require.NoError(t, err)
	assert.Equal(t, 1, active.Version)
}

func TestCreateCandidateOnFreshTopicAdvancesPastParent(t *testing.T) {
	// Episodes on a topic without stored versions run on the topic's default
	// version, which has no strategy row. The first evolved candidate must
	// still get a higher version number than that parent.
	repo := &memRepo{}
	store := testStore(repo)
	ctx := context.Background()

	candidate, err := store.CreateCandidate(ctx, "topic", models.DefaultConfig(), 1)
	require.NoError(t, err)

	require.NotNil(t, candidate.ParentVersion)
	assert.Greater(t, candidate.Version, *candidate.ParentVersion)
	assert.Equal(t, 2, candidate.Version)

	// Looking up the parent version must not resolve to the candidate.
	_, err = store.GetVersion(ctx, "topic", 1)
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestCreateCandidateHonorsNonDefaultParent(t *testing.T) {
	store := testStore(&memRepo{})

	candidate, err := store.CreateCandidate(context.Background(), "topic", models.DefaultConfig(), 3)
	require.NoError(t, err)
	assert.Equal(t, 4, candidate.Version)
	assert.Equal(t, 3, *candidate.ParentVersion)
}

func TestConcurrentVersionCreation(t *testing.T) {
	repo := &memRepo{}
	store := testStore(repo)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	results := make([]*models.Strategy, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := store.CreateVersion(ctx, "topic", models.DefaultConfig(), nil, models.StrategyStatusActive, 100)
			require.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()

	seen := map[int]bool{}
	for _, s := range results {
		assert.False(t, seen[s.Version], "version %d assigned twice", s.Version)
		seen[s.Version] = true
	}

	active := 0
	for _, s := range repo.strategies {
		if s.Status == models.StrategyStatusActive {
			active++
		}
	}
	assert.Equal(t, 1, active, "exactly one active version after the dust settles")
}
