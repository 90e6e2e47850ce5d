package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrMissingDatabaseURL is returned when no database URL is configured.
	ErrMissingDatabaseURL = errors.New("database url is required")
	// ErrUnsupportedDatabase is returned for database URLs that are neither postgres nor sqlite.
	ErrUnsupportedDatabase = errors.New("unsupported database url scheme (use postgres:// or sqlite://)")
	// ErrInvalidWorkers is returned when the worker count is below one.
	ErrInvalidWorkers = errors.New("workers must be at least 1")
)

const (
	defaultDatabaseURL   = "sqlite://mediaorganizer.db"
	defaultRedisURL      = "redis://localhost:6379/0"
	defaultServerPort    = "8080"
	defaultLogLevel      = "info"
	defaultWorkers       = 2
	defaultQueueName     = "mediaorganizer:jobs"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultCacheTTL      = 2 * time.Minute
)

// Config holds process configuration. Upstream and AI credentials are not here;
// they live in the settings row so they can be edited at runtime.
type Config struct {
	DatabaseURL   string
	RedisURL      string
	ServerPort    string
	LogLevel      string
	Workers       int
	QueueName     string
	SyncSchedule  string // cron expression; empty disables scheduled syncs
	GeminiBaseURL string
	CacheTTL      time.Duration // 0 disables the settings/count cache
}

// Load reads configuration from the environment, falling back to a .env file
// in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// A missing .env is fine.
	_ = v.ReadInConfig()

	v.SetDefault("DATABASE_URL", defaultDatabaseURL)
	v.SetDefault("REDIS_URL", defaultRedisURL)
	v.SetDefault("SERVER_PORT", defaultServerPort)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("WORKERS", defaultWorkers)
	v.SetDefault("QUEUE_NAME", defaultQueueName)
	v.SetDefault("GEMINI_BASE_URL", defaultGeminiBaseURL)
	v.SetDefault("CACHE_TTL", defaultCacheTTL)

	c := &Config{
		DatabaseURL:   v.GetString("DATABASE_URL"),
		RedisURL:      v.GetString("REDIS_URL"),
		ServerPort:    v.GetString("SERVER_PORT"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		Workers:       v.GetInt("WORKERS"),
		QueueName:     v.GetString("QUEUE_NAME"),
		SyncSchedule:  v.GetString("SYNC_SCHEDULE"),
		GeminiBaseURL: v.GetString("GEMINI_BASE_URL"),
		CacheTTL:      v.GetDuration("CACHE_TTL"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if _, err := c.DatabaseDriver(); err != nil {
		return err
	}
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	return nil
}

// DatabaseDriver reports "postgres" or "sqlite" based on the DATABASE_URL scheme.
func (c *Config) DatabaseDriver() (string, error) {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return "postgres", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	}
	return "", ErrUnsupportedDatabase
}
