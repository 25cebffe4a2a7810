package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the taskdeck service.
// Environment variables are parsed from the TASKDECK_ prefix,
// e.g. TASKDECK_HTTP_PORT, TASKDECK_POSTGRES_DSN.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage. DBDriver "auto" resolves to postgres when a DSN is set,
	// otherwise sqlite.
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/taskdeck.db"`

	// Authentication. Shared HMAC secret for verifying bearer tokens
	// issued by the external auth provider.
	AuthSecret string `envconfig:"AUTH_SECRET" default:""`

	// Completion service (OpenAI-compatible chat completions API).
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ResolveDefaults derives DBDriver when set to "auto" and validates the result.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	return nil
}

// New creates a Config by parsing TASKDECK_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("TASKDECK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("openai_model", cfg.OpenAIModel).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Bool("auth_secret_present", cfg.AuthSecret != "").
		Bool("openai_key_present", cfg.OpenAIAPIKey != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting returns a config with in-memory defaults for tests.
func NewForTesting() *Config {
	return &Config{
		HTTPPort:      8080,
		DBDriver:      "sqlite",
		SQLitePath:    ":memory:",
		AuthSecret:    "test-secret",
		OpenAIBaseURL: "http://localhost:0",
		OpenAIModel:   "gpt-4o-mini",
		LogLevel:      "debug",
	}
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
