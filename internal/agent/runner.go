package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
)

// ContentGenerator is the slice of the langchaingo model the runner needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error)
}

// ModelFactory builds a model for a strategy's model tier.
type ModelFactory func(ctx context.Context, tier string) (ContentGenerator, error)

// Runner implements Agent with a langchaingo tool-call loop: each model turn
// streams text deltas, then any tool calls are executed in order and fed back
// into the conversation until the model stops calling tools or the strategy's
// follow-up budget runs out.
type Runner struct {
	newModel ModelFactory
	tools    *Registry
	logger   *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(newModel ModelFactory, tools *Registry, logger *slog.Logger) *Runner {
	return &Runner{
		newModel: newModel,
		tools:    tools,
		logger:   logger,
	}
}

const systemPrompt = `You are a research agent. Use the available tools to find, evaluate
and distill sources for the user's research query, then write up your findings.`

// Stream runs the tool-call loop, pushing chunks to emit in strict order.
func (r *Runner) Stream(ctx context.Context, prompt string, rc RunContext, emit func(Chunk) error) error {
	model, err := r.newModel(ctx, rc.Config.ModelTier)
	if err != nil {
		return fmt.Errorf("resolve model: %w", err)
	}

	history := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	defs := Definitions(rc.Config.EnabledTools)

	// One initial turn, the configured follow-ups, plus a closing synthesis turn.
	maxTurns := rc.Config.MaxFollowups + 2

	for turn := 0; turn < maxTurns; turn++ {
		var emitErr error
		resp, err := model.GenerateContent(ctx, history,
			llms.WithTools(defs),
			llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				if err := emit(Chunk{Type: ChunkTextDelta, Text: string(chunk)}); err != nil {
					emitErr = err
					return err
				}
				return nil
			}),
		)
		if emitErr != nil {
			return emitErr
		}
		if err != nil {
			return fmt.Errorf("agent turn %d: %w", turn, err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("agent returned no choices")
		}

		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			return nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		for _, tc := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, tc)
		}
		history = append(history, assistant)

		for _, tc := range choice.ToolCalls {
			name := tc.FunctionCall.Name
			args := parseArgs(tc.FunctionCall.Arguments)

			if err := emit(Chunk{Type: ChunkToolCall, Tool: name, Args: args}); err != nil {
				return err
			}

			output, execErr := r.tools.Execute(ctx, rc, name, args)
			if execErr != nil {
				// Tool failures go back to the model so it can self-correct.
				r.logger.Warn("tool execution failed", "tool", name, "episode_id", rc.EpisodeID, "error", execErr)
				output = map[string]any{"error": execErr.Error()}
			}

			if err := emit(Chunk{Type: ChunkToolResult, Tool: name, Output: output}); err != nil {
				return err
			}

			payload, _ := json.Marshal(output)
			history = append(history, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       name,
					Content:    string(payload),
				}},
			})
		}
	}

	r.logger.Debug("follow-up budget exhausted", "episode_id", rc.EpisodeID, "max_followups", rc.Config.MaxFollowups)
	return nil
}

// parseArgs decodes a tool call's JSON arguments, tolerating malformed input.
func parseArgs(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{"_raw": raw}
	}
	return args
}
