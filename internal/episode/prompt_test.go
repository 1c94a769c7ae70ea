package episode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raphaelgruber/scout-go/internal/models"
)

func TestBuildPrompt(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.SearchDepth = models.SearchDepthDeep
	cfg.TimeWindowDays = 7
	cfg.SummaryStyle = models.SummaryStyleBullets
	cfg.SensoFirst = true
	cfg.ParallelSearch = true

	prompt := BuildPrompt("quic vs tcp", cfg)

	assert.Contains(t, prompt, "quic vs tcp")
	assert.Contains(t, prompt, "exhaustively")
	assert.Contains(t, prompt, "last 7 days")
	assert.Contains(t, prompt, "bullet list")
	assert.Contains(t, prompt, "long-term memory")
	assert.Contains(t, prompt, "searches together")
}

func TestBuildPromptSensoFirstRequiresTool(t *testing.T) {
	cfg := models.DefaultConfig().WithoutTool(models.ToolSensoQuery)
	cfg.SensoFirst = true

	assert.NotContains(t, BuildPrompt("q", cfg), "long-term memory")
}
