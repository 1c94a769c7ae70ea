package episode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/scout-go/internal/agent"
	"github.com/raphaelgruber/scout-go/internal/models"
)

func collectTranslator(t *testing.T, chunks []agent.Chunk) ([]Event, *translator) {
	t.Helper()
	var got []Event
	tr := newTranslator(func(e Event) { got = append(got, e) })
	for _, c := range chunks {
		require.NoError(t, tr.Consume(c))
	}
	return got, tr
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestTranslatorTextAccumulation(t *testing.T) {
	got, tr := collectTranslator(t, []agent.Chunk{
		{Type: agent.ChunkTextDelta, Text: "Raft "},
		{Type: agent.ChunkTextDelta, Text: "elects leaders."},
	})

	assert.Equal(t, []EventType{EventPartial, EventPartial}, types(got))
	assert.Equal(t, "Raft elects leaders.", tr.Text())
}

func TestTranslatorSearchEnrichment(t *testing.T) {
	output := agent.SearchOutput{Results: []agent.SearchResult{
		{URL: "https://a.example"},
		{URL: "https://b.example"},
	}}

	got, tr := collectTranslator(t, []agent.Chunk{
		{Type: agent.ChunkToolCall, Tool: models.ToolWebSearch, Args: map[string]any{"query": "raft"}},
		{Type: agent.ChunkToolResult, Tool: models.ToolWebSearch, Output: output},
	})

	// Enrichment follows the tool_result immediately, never reordered.
	assert.Equal(t, []EventType{EventStatus, EventToolCall, EventToolResult, EventSearchResults}, types(got))
	assert.Equal(t, StatusSearching, got[0].Status)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, tr.Sources())

	usage := tr.ToolUsage()
	require.Len(t, usage, 1)
	assert.Equal(t, models.ToolWebSearch, usage[0].Tool)
	assert.Equal(t, output, usage[0].Result)
}

func TestTranslatorEnrichmentNeverRaises(t *testing.T) {
	// Error-shaped output does not match the typed shape, so only the
	// generic tool_result is emitted.
	got, _ := collectTranslator(t, []agent.Chunk{
		{Type: agent.ChunkToolCall, Tool: models.ToolWebSearch},
		{Type: agent.ChunkToolResult, Tool: models.ToolWebSearch, Output: map[string]any{"error": "timeout"}},
	})

	assert.Equal(t, []EventType{EventStatus, EventToolCall, EventToolResult}, types(got))
}

func TestTranslatorStatusPerTool(t *testing.T) {
	got, _ := collectTranslator(t, []agent.Chunk{
		{Type: agent.ChunkToolCall, Tool: models.ToolEvaluateSources},
		{Type: agent.ChunkToolResult, Tool: models.ToolEvaluateSources, Output: agent.EvaluationOutput{
			Evaluations: []agent.SourceEvaluation{{URL: "https://a.example", Score: 0.9}},
		}},
		{Type: agent.ChunkToolCall, Tool: models.ToolExtractLearnings},
		{Type: agent.ChunkToolResult, Tool: models.ToolExtractLearnings, Output: agent.LearningOutput{
			Learnings: []string{"raft uses randomized timeouts"},
		}},
		// Memory lookups carry no status of their own.
		{Type: agent.ChunkToolCall, Tool: models.ToolSensoQuery},
		{Type: agent.ChunkToolResult, Tool: models.ToolSensoQuery, Output: map[string]any{"count": 0}},
	})

	assert.Equal(t, []EventType{
		EventStatus, EventToolCall, EventToolResult, EventEvaluationResults,
		EventStatus, EventToolCall, EventToolResult, EventLearningExtracted,
		EventToolCall, EventToolResult,
	}, types(got))
	assert.Equal(t, StatusEvaluating, got[0].Status)
	assert.Equal(t, StatusExtracting, got[4].Status)
}

func TestTranslatorFollowups(t *testing.T) {
	search := func() []agent.Chunk {
		return []agent.Chunk{
			{Type: agent.ChunkToolCall, Tool: models.ToolWebSearch},
			{Type: agent.ChunkToolResult, Tool: models.ToolWebSearch, Output: agent.SearchOutput{}},
		}
	}

	_, tr := collectTranslator(t, nil)
	assert.Equal(t, 0, tr.Followups(), "no searches means no followups")

	_, tr = collectTranslator(t, search())
	assert.Equal(t, 0, tr.Followups(), "the first search is not a followup")

	var chunks []agent.Chunk
	for i := 0; i < 4; i++ {
		chunks = append(chunks, search()...)
	}
	_, tr = collectTranslator(t, chunks)
	assert.Equal(t, 3, tr.Followups())
}
