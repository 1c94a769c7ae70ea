package episode

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/scout-go/internal/models"
)

var depthInstructions = map[string]string{
	models.SearchDepthShallow:  "Do a quick pass: skim the top results and stop once the question is answered.",
	models.SearchDepthStandard: "Search thoroughly but stay focused on the question.",
	models.SearchDepthDeep:     "Search exhaustively: follow up on leads, compare sources and cross-check claims.",
}

var styleInstructions = map[string]string{
	models.SummaryStyleConcise:  "Write a concise summary of your findings.",
	models.SummaryStyleDetailed: "Write a detailed write-up of your findings with supporting context.",
	models.SummaryStyleBullets:  "Write your findings as a bullet list, one finding per bullet.",
}

// BuildPrompt renders the research instructions for a query under a
// strategy's search depth, time window and summary style.
func BuildPrompt(query string, cfg models.StrategyConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Research the following query: %s\n\n", query)

	if d, ok := depthInstructions[cfg.SearchDepth]; ok {
		b.WriteString(d)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Prefer sources from the last %d days.\n", cfg.TimeWindowDays)

	if cfg.SensoFirst && cfg.ToolEnabled(models.ToolSensoQuery) {
		b.WriteString("Before searching the web, check long-term memory for notes from earlier research on this topic.\n")
	}
	if cfg.ParallelSearch {
		b.WriteString("When several search angles exist, issue the searches together rather than one at a time.\n")
	}

	if s, ok := styleInstructions[cfg.SummaryStyle]; ok {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	return b.String()
}
