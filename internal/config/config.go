// Package config loads Scout configuration from environment variables with an
// optional YAML overlay, and sets up logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LLM provider identifiers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// LLM provider
	LLMProvider     string `yaml:"llm_provider"`
	OllamaHost      string `yaml:"ollama_host"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	// Model tier mapping: tier names in strategy configs resolve to these.
	ModelFast     string `yaml:"model_fast"`
	ModelBalanced string `yaml:"model_balanced"`
	ModelDeep     string `yaml:"model_deep"`

	// Server
	ServerPort string `yaml:"server_port"`

	// Evolution
	MinEpisodes      int `yaml:"min_episodes"`
	CandidateRollout int `yaml:"candidate_rollout"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from an optional YAML file (SCOUT_CONFIG) overlaid
// by environment variables. Env always wins over file values.
func Load() Config {
	cfg := Config{
		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "scout",
		SurrealDBDatabase:  "research",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		LLMProvider: ProviderOllama,
		OllamaHost:  "http://localhost:11434",

		ModelFast:     "llama3.2:3b",
		ModelBalanced: "llama3.1:8b",
		ModelDeep:     "llama3.1:70b",

		ServerPort: "8585",

		MinEpisodes:      1,
		CandidateRollout: 20,

		LogFile: "/tmp/scout.log",
	}

	if path := os.Getenv("SCOUT_CONFIG"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			// Config file problems are not fatal: fall through to env+defaults.
			fmt.Fprintf(os.Stderr, "warning: config file %s: %v\n", path, err)
		}
	}

	cfg.SurrealDBURL = getEnv("SURREALDB_URL", cfg.SurrealDBURL)
	cfg.SurrealDBNamespace = getEnv("SURREALDB_NAMESPACE", cfg.SurrealDBNamespace)
	cfg.SurrealDBDatabase = getEnv("SURREALDB_DATABASE", cfg.SurrealDBDatabase)
	cfg.SurrealDBUser = getEnv("SURREALDB_USER", cfg.SurrealDBUser)
	cfg.SurrealDBPass = getEnv("SURREALDB_PASS", cfg.SurrealDBPass)
	cfg.SurrealDBAuthLevel = getEnv("SURREALDB_AUTH_LEVEL", cfg.SurrealDBAuthLevel)

	cfg.LLMProvider = getEnv("SCOUT_LLM_PROVIDER", cfg.LLMProvider)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)

	cfg.ModelFast = getEnv("SCOUT_MODEL_FAST", cfg.ModelFast)
	cfg.ModelBalanced = getEnv("SCOUT_MODEL_BALANCED", cfg.ModelBalanced)
	cfg.ModelDeep = getEnv("SCOUT_MODEL_DEEP", cfg.ModelDeep)

	cfg.ServerPort = getEnv("SCOUT_SERVER_PORT", cfg.ServerPort)

	cfg.MinEpisodes = getEnvInt("SCOUT_MIN_EPISODES", cfg.MinEpisodes)
	cfg.CandidateRollout = getEnvInt("SCOUT_CANDIDATE_ROLLOUT", cfg.CandidateRollout)

	cfg.LogFile = getEnv("SCOUT_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = parseLogLevel(getEnv("SCOUT_LOG_LEVEL", "INFO"))

	return cfg
}

// overlayFile merges YAML file values into cfg. Zero values in the file leave
// the corresponding defaults untouched because decoding happens in place.
func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
