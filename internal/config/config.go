package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the narrative service
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	OpenAI    OpenAIConfig
	Spacetime SpacetimeConfig
	Google    GoogleConfig
	Session   SessionConfig
	DND5E     DND5EConfig
	Discord   DiscordConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port       int    `env:"PORT" envDefault:"8081"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	Env        string `env:"ENV" envDefault:"production"`
}

// RedisConfig holds Redis-specific configuration. Sessions stay in memory when URL is empty.
type RedisConfig struct {
	URL string `env:"REDIS_URL"`
}

// OpenAIConfig holds the structured output generation configuration
type OpenAIConfig struct {
	APIKey  string        `env:"OPENAI_API_KEY"`
	Model   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Timeout time.Duration `env:"OPENAI_TIMEOUT" envDefault:"60s"`
}

// SpacetimeConfig holds the real-time backend configuration
type SpacetimeConfig struct {
	URL    string `env:"STDB_URL"`
	AltURL string `env:"SPACETIMEDB_URL"`
	Module string `env:"STDB_MODULE" envDefault:"narrative"`
}

// GoogleConfig holds Google identity configuration
type GoogleConfig struct {
	ClientID string `env:"GOOGLE_CLIENT_ID"`
}

// SessionConfig holds wizard session and session token configuration
type SessionConfig struct {
	WizardTTL time.Duration `env:"WIZARD_SESSION_TTL" envDefault:"24h"`
	Secret    string        `env:"SERVER_SESSION_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL  time.Duration `env:"SERVER_SESSION_TTL" envDefault:"12h"`
}

// DND5EConfig toggles SRD lore hints in generation prompts
type DND5EConfig struct {
	Enabled bool `env:"DND5E_ENABLED" envDefault:"false"`
}

// DiscordConfig holds the webhook used to announce finished characters
type DiscordConfig struct {
	WebhookID    string `env:"DISCORD_WEBHOOK_ID"`
	WebhookToken string `env:"DISCORD_WEBHOOK_TOKEN"`
}

// RateLimitConfig holds per-client request limits for model-backed routes
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"2"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Session.WizardTTL <= 0 {
		return nil, fmt.Errorf("WIZARD_SESSION_TTL must be positive")
	}
	if strings.TrimSpace(cfg.Session.Secret) == "" {
		return nil, fmt.Errorf("SERVER_SESSION_SECRET is required")
	}
	if cfg.RateLimit.RPS <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", cfg.RateLimit.RPS)
	}
	if cfg.RateLimit.Burst < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", cfg.RateLimit.Burst)
	}

	return cfg, nil
}

// BackendURL returns the real-time backend base URL, preferring STDB_URL
func (c SpacetimeConfig) BackendURL() string {
	if c.URL != "" {
		return strings.TrimRight(c.URL, "/")
	}
	if c.AltURL != "" {
		return strings.TrimRight(c.AltURL, "/")
	}
	return "http://localhost:3000"
}

// AllowedOrigins splits CORS_ORIGIN. A single "*" allows every origin.
func (c ServerConfig) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigin, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// Development reports whether verbose development logging should be used
func (c ServerConfig) Development() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.LogLevel, "debug")
}
