package episode

import (
	"strings"

	"github.com/raphaelgruber/scout-go/internal/agent"
	"github.com/raphaelgruber/scout-go/internal/models"
)

// translator turns the agent's low-level chunks into canonical events and
// accumulates the episode outcome along the way. Events are pushed in strict
// chunk order; enrichment events follow their tool_result immediately.
type translator struct {
	push func(Event)

	text        strings.Builder
	toolUsage   []models.ToolUsage
	sources     []string
	searchCalls int
}

func newTranslator(push func(Event)) *translator {
	return &translator{push: push}
}

// Consume handles one agent chunk. It always returns nil: pushes to the
// episode queue cannot fail.
func (t *translator) Consume(c agent.Chunk) error {
	switch c.Type {
	case agent.ChunkTextDelta:
		t.text.WriteString(c.Text)
		t.push(Event{Type: EventPartial, Text: c.Text})

	case agent.ChunkToolCall:
		if status := statusForTool(c.Tool); status != "" {
			t.push(Event{Type: EventStatus, Status: status})
		}
		if c.Tool == models.ToolWebSearch {
			t.searchCalls++
		}
		t.toolUsage = append(t.toolUsage, models.ToolUsage{Tool: c.Tool, Args: c.Args})
		t.push(Event{Type: EventToolCall, Tool: c.Tool, Args: c.Args})

	case agent.ChunkToolResult:
		t.recordResult(c.Tool, c.Output)
		t.push(Event{Type: EventToolResult, Tool: c.Tool, Output: c.Output})
		t.enrich(c.Tool, c.Output)
	}
	return nil
}

// recordResult attaches the output to the most recent pending usage entry
// for the tool.
func (t *translator) recordResult(tool string, output any) {
	for i := len(t.toolUsage) - 1; i >= 0; i-- {
		if t.toolUsage[i].Tool == tool && t.toolUsage[i].Result == nil {
			t.toolUsage[i].Result = output
			return
		}
	}
}

// enrich emits a tool-specific event when the output has the expected typed
// shape. Outputs of any other shape (including tool error payloads) only get
// the generic tool_result.
func (t *translator) enrich(tool string, output any) {
	switch tool {
	case models.ToolWebSearch:
		if out, ok := output.(agent.SearchOutput); ok {
			for _, r := range out.Results {
				t.sources = append(t.sources, r.URL)
			}
			t.push(Event{Type: EventSearchResults, Results: out.Results})
		}
	case models.ToolEvaluateSources:
		if out, ok := output.(agent.EvaluationOutput); ok {
			t.push(Event{Type: EventEvaluationResults, Evaluations: out.Evaluations})
		}
	case models.ToolExtractLearnings:
		if out, ok := output.(agent.LearningOutput); ok {
			t.push(Event{Type: EventLearningExtracted, Learnings: out.Learnings})
		}
	}
}

func statusForTool(tool string) string {
	switch tool {
	case models.ToolWebSearch:
		return StatusSearching
	case models.ToolEvaluateSources:
		return StatusEvaluating
	case models.ToolExtractLearnings:
		return StatusExtracting
	default:
		return ""
	}
}

// Text returns the full accumulated assistant text.
func (t *translator) Text() string {
	return t.text.String()
}

// Sources returns every URL the search tool returned, in order.
func (t *translator) Sources() []string {
	return t.sources
}

// ToolUsage returns the ordered tool invocation log.
func (t *translator) ToolUsage() []models.ToolUsage {
	return t.toolUsage
}

// Followups counts search calls beyond the first.
func (t *translator) Followups() int {
	if t.searchCalls <= 1 {
		return 0
	}
	return t.searchCalls - 1
}
