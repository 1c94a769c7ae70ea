// Package agent models the research agent as an opaque streaming capability:
// it accepts a prompt plus a runtime context and pushes typed execution
// chunks to the caller in strict order.
package agent

import (
	"context"

	"github.com/raphaelgruber/scout-go/internal/models"
)

// ChunkType identifies a low-level execution chunk.
type ChunkType string

const (
	ChunkTextDelta  ChunkType = "text-delta"
	ChunkToolCall   ChunkType = "tool-call"
	ChunkToolResult ChunkType = "tool-result"
)

// Chunk is one unit of agent output. Exactly the fields for its type are set.
type Chunk struct {
	Type   ChunkType
	Text   string         // text-delta
	Tool   string         // tool-call, tool-result
	Args   map[string]any // tool-call
	Output any            // tool-result
}

// RunContext carries the identifiers and the immutable strategy config
// snapshot an episode pins at start time.
type RunContext struct {
	TopicID         string
	EpisodeID       string
	StrategyVersion int
	Config          models.StrategyConfig
}

// Agent streams execution chunks for a prompt. Emit is called once per chunk,
// in order; the producer suspends until emit returns, so a chunk is fully
// observed before the next one is produced. A non-nil error from emit aborts
// the stream and is returned unchanged.
type Agent interface {
	Stream(ctx context.Context, prompt string, rc RunContext, emit func(Chunk) error) error
}
