package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// DefaultTimeout is the uniform client-side request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultSyncSchedule refreshes the inbox once a minute.
const DefaultSyncSchedule = "* * * * *"

type Config struct {
	// BaseURL of the RoundBuy mobile API, including the
	// /api/v1/mobile-app prefix.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// TimeoutSeconds applies uniformly to every request; 0 means the
	// 30 second default.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	// StoragePath is the directory holding the durable session store.
	StoragePath string `yaml:"storage_path" json:"storage_path"`
	// Engine selects the HTTP engine: "nethttp" (default) or "fasthttp".
	Engine string `yaml:"engine" json:"engine"`
	// RPS/Burst bound client-side request rate; zero disables limiting.
	RPS   float64 `yaml:"rps" json:"rps"`
	Burst int     `yaml:"burst" json:"burst"`
	// SyncSchedule is a cron expression for background inbox refresh.
	SyncSchedule string `yaml:"sync_schedule" json:"sync_schedule"`
	LogLevel     string `yaml:"log_level" json:"log_level"`
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	return &cfg, nil
}

func SaveToFile(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the config file at path (or the default path when empty),
// falling back to env-only configuration when no file exists. A .env
// file in the working directory is honored first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err != nil {
		cfg := &Config{}
		cfg.applyEnv()
		return cfg, nil
	}
	return LoadFromFile(path)
}

// DefaultPath returns $HOME/.roundbuy.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".roundbuy.yaml"
	}
	return filepath.Join(home, ".roundbuy.yaml")
}

// DefaultStoragePath returns $HOME/.roundbuy/session.
func DefaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".roundbuy", "session")
	}
	return filepath.Join(home, ".roundbuy", "session")
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ROUNDBUY_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("ROUNDBUY_STORAGE_PATH"); v != "" {
		c.StoragePath = v
	}
	if v := os.Getenv("ROUNDBUY_ENGINE"); v != "" {
		c.Engine = v
	}
	if v := os.Getenv("ROUNDBUY_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("ROUNDBUY_SYNC_SCHEDULE"); v != "" {
		c.SyncSchedule = v
	}
	if v := os.Getenv("ROUNDBUY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Timeout returns the effective request timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Schedule returns the effective sync cron expression.
func (c *Config) Schedule() string {
	if c.SyncSchedule == "" {
		return DefaultSyncSchedule
	}
	return c.SyncSchedule
}

// Storage returns the effective session store directory.
func (c *Config) Storage() string {
	if c.StoragePath == "" {
		return DefaultStoragePath()
	}
	return c.StoragePath
}

func (c *Config) IsComplete() bool {
	return c.BaseURL != ""
}

func (c *Config) MissingFields() []string {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	return missing
}
