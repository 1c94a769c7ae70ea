package agent

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/scout-go/internal/models"
	"github.com/tmc/langchaingo/llms"
)

// SearchResult is one source returned by the web search tool.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
}

// SearchOutput is the typed output of the web search tool.
type SearchOutput struct {
	Results []SearchResult `json:"results"`
}

// SourceEvaluation is one scored source from the evaluation tool.
type SourceEvaluation struct {
	URL       string  `json:"url"`
	Score     float64 `json:"score"`
	Verdict   string  `json:"verdict"`
	Rationale string  `json:"rationale,omitempty"`
}

// EvaluationOutput is the typed output of the source evaluation tool.
type EvaluationOutput struct {
	Evaluations []SourceEvaluation `json:"evaluations"`
}

// LearningOutput is the typed output of the learning extraction tool.
type LearningOutput struct {
	Learnings []string `json:"learnings"`
}

// ToolFunc executes one tool call and returns its typed output.
type ToolFunc func(ctx context.Context, rc RunContext, args map[string]any) (any, error)

// Registry maps tool names to their executors. The runner consults it for
// every tool call the model makes; calls to unregistered tools produce an
// error-shaped result instead of aborting the stream, so the model can
// self-correct.
type Registry struct {
	funcs map[string]ToolFunc
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]ToolFunc)}
}

// Register binds an executor to a tool name, replacing any previous binding.
func (r *Registry) Register(name string, fn ToolFunc) {
	r.funcs[name] = fn
}

// Execute runs the named tool. Unknown tools return an error.
func (r *Registry) Execute(ctx context.Context, rc RunContext, name string, args map[string]any) (any, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return fn(ctx, rc, args)
}

// Definitions returns langchaingo tool declarations for the enabled set.
// Tools without a known schema are skipped.
func Definitions(enabled []string) []llms.Tool {
	var defs []llms.Tool
	for _, name := range enabled {
		if schema, ok := toolSchemas[name]; ok {
			defs = append(defs, schema)
		}
	}
	return defs
}

var toolSchemas = map[string]llms.Tool{
	models.ToolWebSearch: {
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        models.ToolWebSearch,
			Description: "Search the web for sources relevant to the research query",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query",
					},
				},
				"required": []string{"query"},
			},
		},
	},
	models.ToolEvaluateSources: {
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        models.ToolEvaluateSources,
			Description: "Score previously found sources for credibility and relevance",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"urls": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Source URLs to evaluate",
					},
				},
				"required": []string{"urls"},
			},
		},
	},
	models.ToolExtractLearnings: {
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        models.ToolExtractLearnings,
			Description: "Extract key learnings from the gathered material",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"focus": map[string]any{
						"type":        "string",
						"description": "Aspect to focus the extraction on",
					},
				},
			},
		},
	},
	models.ToolSensoQuery: {
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        models.ToolSensoQuery,
			Description: "Query the long-term research memory for notes from earlier episodes",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "What to look up in memory",
					},
				},
				"required": []string{"query"},
			},
		},
	},
}
