package episode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/scout-go/internal/agent"
	"github.com/raphaelgruber/scout-go/internal/db"
	"github.com/raphaelgruber/scout-go/internal/metrics"
	"github.com/raphaelgruber/scout-go/internal/models"
)

// ErrEmptyQuery rejects research requests with a blank query.
var ErrEmptyQuery = errors.New("query must not be empty")

// TopicRepo is the slice of the store the controller needs for topics.
type TopicRepo interface {
	GetTopic(ctx context.Context, id string) (*models.Topic, error)
}

// EpisodeRepo persists episode state.
type EpisodeRepo interface {
	CreateEpisode(ctx context.Context, id, topicID, query string, strategyVersion int) (*models.Episode, error)
	UpdateEpisodeStatus(ctx context.Context, id string, status models.EpisodeStatus, outcome *db.EpisodeOutcome) error
}

// NoteRepo persists result notes.
type NoteRepo interface {
	CreateNote(ctx context.Context, id, topicID, title, content, noteType string) (*models.Note, error)
}

// StrategyProvider resolves the effective strategy config for a topic.
// fallbackVersion is recorded when the topic has no stored strategy yet.
type StrategyProvider interface {
	ActiveConfig(ctx context.Context, topicID string, fallbackVersion int) (models.StrategyConfig, int, error)
}

// Analyzer receives completed episodes for background strategy analysis.
type Analyzer interface {
	Enqueue(topicID string, strategyVersion int)
}

// Controller orchestrates one research episode end to end: persistence,
// agent execution, event translation and the post-episode analysis handoff.
type Controller struct {
	topics     TopicRepo
	episodes   EpisodeRepo
	notes      NoteRepo
	strategies StrategyProvider
	agent      agent.Agent
	analyzer   Analyzer
	collector  *metrics.Collector
	logger     *slog.Logger
}

// NewController creates a Controller. collector may be nil.
func NewController(
	topics TopicRepo,
	episodes EpisodeRepo,
	notes NoteRepo,
	strategies StrategyProvider,
	ag agent.Agent,
	analyzer Analyzer,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		topics:     topics,
		episodes:   episodes,
		notes:      notes,
		strategies: strategies,
		agent:      ag,
		analyzer:   analyzer,
		collector:  collector,
		logger:     logger,
	}
}

// Run starts a research episode and returns its event stream. Validation and
// topic lookup failures are returned directly with no episode created; once
// the channel is returned, all further failures surface as error events. The
// stream opens with episode_created and closes after exactly one of
// complete or error.
//
// The episode runs to a terminal state even if ctx is cancelled; callers
// must drain the returned channel until it closes.
func (c *Controller) Run(ctx context.Context, topicID, query string) (<-chan Event, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	topic, err := c.topics.GetTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}

	cfg, version, err := c.strategies.ActiveConfig(ctx, topicID, topic.DefaultStrategyVersion)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}

	episodeID := uuid.New().String()[:8]
	if _, err := c.episodes.CreateEpisode(ctx, episodeID, topicID, query, version); err != nil {
		return nil, fmt.Errorf("create episode: %w", err)
	}

	q := newQueue()
	q.Push(Event{Type: EventEpisodeCreated, EpisodeID: episodeID})

	go c.run(context.WithoutCancel(ctx), q, episodeID, topicID, query, cfg, version)

	return q.Events(), nil
}

func (c *Controller) run(ctx context.Context, q *queue, episodeID, topicID, query string, cfg models.StrategyConfig, version int) {
	defer q.Close()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("episode panicked", "episode_id", episodeID, "panic", r)
			c.fail(ctx, q, episodeID, fmt.Errorf("internal error: %v", r))
		}
	}()

	if err := c.episodes.UpdateEpisodeStatus(ctx, episodeID, models.EpisodeStatusRunning, nil); err != nil {
		c.fail(ctx, q, episodeID, err)
		return
	}
	q.Push(Event{Type: EventStatus, Status: StatusInitializing})
	q.Push(Event{Type: EventStatus, Status: StatusSearching})

	tr := newTranslator(q.Push)
	rc := agent.RunContext{
		TopicID:         topicID,
		EpisodeID:       episodeID,
		StrategyVersion: version,
		Config:          cfg,
	}

	streamStart := time.Now()
	err := c.agent.Stream(ctx, BuildPrompt(query, cfg), rc, tr.Consume)
	if c.collector != nil {
		c.collector.RecordTiming(metrics.OpAgentStream, time.Since(streamStart))
	}
	if err != nil {
		c.fail(ctx, q, episodeID, err)
		return
	}

	q.Push(Event{Type: EventStatus, Status: StatusSaving})

	noteID := noteID(query, episodeID)
	note, err := c.notes.CreateNote(ctx, noteID, topicID, noteTitle(query), tr.Text(), models.NoteTypeResearch)
	if err != nil {
		c.fail(ctx, q, episodeID, fmt.Errorf("persist note: %w", err))
		return
	}
	savedNoteID := models.MustRecordIDString(note.ID)

	followups := tr.Followups()
	outcome := &db.EpisodeOutcome{
		SourcesReturned: tr.Sources(),
		FollowupCount:   &followups,
		ToolUsage:       tr.ToolUsage(),
		ResultNoteID:    &savedNoteID,
	}
	if err := c.episodes.UpdateEpisodeStatus(ctx, episodeID, models.EpisodeStatusCompleted, outcome); err != nil {
		c.fail(ctx, q, episodeID, fmt.Errorf("finalize episode: %w", err))
		return
	}

	q.Push(Event{Type: EventNoteCreated, NoteID: savedNoteID})
	q.Push(Event{Type: EventComplete, EpisodeID: episodeID})

	if c.collector != nil {
		c.collector.RecordTiming(metrics.OpEpisodeRun, time.Since(start))
	}
	c.logger.Info("episode completed",
		"episode_id", episodeID,
		"topic_id", topicID,
		"strategy_version", version,
		"sources", len(tr.Sources()),
		"followups", followups,
		"duration", time.Since(start))

	c.analyzer.Enqueue(topicID, version)
}

// fail marks the episode failed and emits the terminal error event. Analysis
// is never enqueued for failed episodes.
func (c *Controller) fail(ctx context.Context, q *queue, episodeID string, cause error) {
	msg := cause.Error()
	if err := c.episodes.UpdateEpisodeStatus(ctx, episodeID, models.EpisodeStatusFailed, &db.EpisodeOutcome{
		ErrorMessage: &msg,
	}); err != nil {
		c.logger.Error("failed to mark episode failed", "episode_id", episodeID, "error", err)
	}
	c.logger.Warn("episode failed", "episode_id", episodeID, "error", cause)
	q.Push(Event{Type: EventError, EpisodeID: episodeID, Error: msg})
}

func noteTitle(query string) string {
	title := strings.TrimSpace(query)
	if len(title) > 80 {
		title = title[:80]
	}
	return title
}

func noteID(query, episodeID string) string {
	slug := models.Slugify(noteTitle(query))
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		return episodeID
	}
	return slug + "-" + episodeID
}
