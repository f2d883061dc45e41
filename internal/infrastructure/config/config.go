package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Logging     LogConfig
	RateLimit   RateLimitConfig
	Storage     StorageConfig
	Persistence PersistenceConfig
	Panels      PanelsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// StorageConfig selects and configures the snapshot storage backend.
type StorageConfig struct {
	// Backend is one of "memory", "bolt", "remote"
	Backend string `envconfig:"STORAGE_BACKEND" default:"bolt"`

	BoltPath string `envconfig:"STORAGE_BOLT_PATH" default:"panelkit.db"`

	RemoteURL     string        `envconfig:"STORAGE_REMOTE_URL" default:""`
	RemoteTimeout time.Duration `envconfig:"STORAGE_REMOTE_TIMEOUT" default:"5s"`
	RemoteRetries int           `envconfig:"STORAGE_REMOTE_RETRIES" default:"2"`
	RemoteToken   string        `envconfig:"STORAGE_REMOTE_TOKEN" default:""`
}

// PersistenceConfig holds snapshot retention and auto-save tuning.
type PersistenceConfig struct {
	StorageKey        string        `envconfig:"PERSIST_KEY" default:"panelkit:state"`
	TTL               time.Duration `envconfig:"PERSIST_TTL" default:"168h"`
	MaxEventAge       time.Duration `envconfig:"PERSIST_MAX_EVENT_AGE" default:"24h"`
	DebounceInterval  time.Duration `envconfig:"PERSIST_DEBOUNCE" default:"1s"`
	IncludeNavigation bool          `envconfig:"PERSIST_NAVIGATION" default:"true"`
	CompressThreshold int           `envconfig:"PERSIST_COMPRESS_THRESHOLD" default:"32768"`
}

// PanelsConfig points at an optional YAML panel layout loaded at startup.
type PanelsConfig struct {
	ConfigPath string `envconfig:"PANELS_CONFIG" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Storage: StorageConfig{
			Backend:       "bolt",
			BoltPath:      "panelkit.db",
			RemoteTimeout: 5 * time.Second,
			RemoteRetries: 2,
		},
		Persistence: PersistenceConfig{
			StorageKey:        "panelkit:state",
			TTL:               168 * time.Hour,
			MaxEventAge:       24 * time.Hour,
			DebounceInterval:  time.Second,
			IncludeNavigation: true,
			CompressThreshold: 32 * 1024,
		},
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "memory", "bolt":
	case "remote":
		if c.Storage.RemoteURL == "" {
			return fmt.Errorf("storage backend %q requires STORAGE_REMOTE_URL", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}
