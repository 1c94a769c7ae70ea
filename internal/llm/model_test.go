package llm

import (
	"context"
	"testing"

	"github.com/raphaelgruber/scout-go/internal/config"
	"github.com/raphaelgruber/scout-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		LLMProvider:   config.ProviderOllama,
		OllamaHost:    "http://localhost:11434",
		ModelFast:     "llama3.2:3b",
		ModelBalanced: "llama3.1:8b",
		ModelDeep:     "llama3.1:70b",
	}
}

func TestResolveTier(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "llama3.2:3b", ResolveTier(cfg, models.ModelTierFast))
	assert.Equal(t, "llama3.1:8b", ResolveTier(cfg, models.ModelTierBalanced))
	assert.Equal(t, "llama3.1:70b", ResolveTier(cfg, models.ModelTierDeep))
	assert.Equal(t, "llama3.1:8b", ResolveTier(cfg, "unknown"), "unknown tiers fall back to balanced")
}

func TestNewModelOllama(t *testing.T) {
	m, err := NewModel(context.Background(), testConfig(), models.ModelTierFast)
	require.NoError(t, err)
	assert.Equal(t, "llama3.2:3b", m.Model())
}

func TestNewModelMissingKeys(t *testing.T) {
	cfg := testConfig()

	cfg.LLMProvider = config.ProviderOpenAI
	_, err := NewModel(context.Background(), cfg, models.ModelTierBalanced)
	assert.Error(t, err)

	cfg.LLMProvider = config.ProviderAnthropic
	_, err = NewModel(context.Background(), cfg, models.ModelTierBalanced)
	assert.Error(t, err)

	cfg.LLMProvider = "carrier-pigeon"
	_, err = NewModel(context.Background(), cfg, models.ModelTierBalanced)
	assert.Error(t, err)
}
