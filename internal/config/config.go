package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Providers
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash-preview-09-2025"`
	FalKey        string `env:"FAL_KEY"`
	FalBaseURL    string `env:"FAL_BASE_URL" envDefault:"https://fal.run"`

	// Zero leaves provider calls to the transport defaults.
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"0s"`

	// Prompting
	SystemPromptPath  string `env:"SYSTEM_PROMPT_PATH" envDefault:".system_prompt"`
	ModelProfilesPath string `env:"MODEL_PROFILES_PATH"`

	// Catalog store, optional
	DatabaseURL string `env:"DATABASE_URL"`

	// Server
	Port               int    `env:"PORT" envDefault:"3002"`
	MaxUploadBytes     int64  `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
	CORSOrigin         string `env:"CORS_ORIGIN" envDefault:"*"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"0"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) CatalogEnabled() bool {
	return c.DatabaseURL != ""
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
