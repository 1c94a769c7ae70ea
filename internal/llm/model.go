// Package llm provides the language model layer using langchaingo.
package llm

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/scout-go/internal/config"
	"github.com/raphaelgruber/scout-go/internal/metrics"
	"github.com/raphaelgruber/scout-go/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Model wraps a langchaingo LLM for a specific model tier.
type Model struct {
	llm       llms.Model
	modelName string
	collector *metrics.Collector
}

// ResolveTier maps a strategy config model tier onto a concrete model name.
// Unknown tiers fall back to the balanced model.
func ResolveTier(cfg config.Config, tier string) string {
	switch tier {
	case models.ModelTierFast:
		return cfg.ModelFast
	case models.ModelTierDeep:
		return cfg.ModelDeep
	default:
		return cfg.ModelBalanced
	}
}

// NewModel creates an LLM for the given model tier based on configuration.
func NewModel(ctx context.Context, cfg config.Config, tier string) (*Model, error) {
	modelName := ResolveTier(cfg, tier)

	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(modelName),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(modelName),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(modelName),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx)
		if awsErr != nil {
			return nil, fmt.Errorf("load aws config: %w", awsErr)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		model, err = bedrock.New(
			bedrock.WithClient(client),
			bedrock.WithModel(modelName),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: modelName,
	}, nil
}

// Model returns the concrete model name.
func (m *Model) Model() string {
	return m.modelName
}

// Instrument attaches a metrics collector. collector may be nil.
func (m *Model) Instrument(collector *metrics.Collector) *Model {
	m.collector = collector
	return m
}

// GenerateContent forwards to the underlying model. Callers pass tool
// definitions and a streaming func through langchaingo call options.
func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	start := time.Now()
	resp, err := m.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	if m.collector != nil && len(resp.Choices) > 0 {
		info := resp.Choices[0].GenerationInfo
		m.collector.RecordLLMUsage(metrics.OpLLMGenerate, time.Since(start),
			tokenCount(info, "PromptTokens", "InputTokens"),
			tokenCount(info, "CompletionTokens", "OutputTokens"))
	}
	return resp, nil
}

// tokenCount pulls a token count out of GenerationInfo. Providers disagree on
// key names and value types, so the first matching key wins.
func tokenCount(info map[string]any, keys ...string) int64 {
	for _, key := range keys {
		switch v := info[key].(type) {
		case int:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}
