package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	RedisURL string `envconfig:"REDIS_URL" default:"localhost:6379"`

	// Any OpenAI-compatible chat completions endpoint works: OpenAI,
	// DeepSeek, Moonshot, Gemini's compat layer, or a local Ollama.
	LLMAPIKey  string `envconfig:"LLM_API_KEY"`
	LLMBaseURL string `envconfig:"LLM_BASE_URL" default:"https://api.openai.com/v1"`
	ModelName  string `envconfig:"LLM_MODEL" default:"gpt-4o"`

	// SummaryModelName is used for memory compaction. Empty means use
	// ModelName for summaries too.
	SummaryModelName string `envconfig:"LLM_SUMMARY_MODEL"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if cfg.SummaryModelName == "" {
		cfg.SummaryModelName = cfg.ModelName
	}
	return &cfg, nil
}

// SlogLevel maps the configured log level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
