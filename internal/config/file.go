package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL   string `yaml:"database_url"`
	RedisURL      string `yaml:"redis_url"`
	ServerPort    string `yaml:"server_port"`
	LogLevel      string `yaml:"log_level"`
	Workers       int    `yaml:"workers"`
	QueueName     string `yaml:"queue_name"`
	SyncSchedule  string `yaml:"sync_schedule"`
	GeminiBaseURL string `yaml:"gemini_base_url"`
	CacheTTL      string `yaml:"cache_ttl"`
}

// LoadFromFile loads config from a YAML file. database_url is required.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	c := &Config{
		DatabaseURL:   f.DatabaseURL,
		RedisURL:      f.RedisURL,
		ServerPort:    f.ServerPort,
		LogLevel:      f.LogLevel,
		Workers:       f.Workers,
		QueueName:     f.QueueName,
		SyncSchedule:  f.SyncSchedule,
		GeminiBaseURL: f.GeminiBaseURL,
		CacheTTL:      defaultCacheTTL,
	}
	if c.RedisURL == "" {
		c.RedisURL = defaultRedisURL
	}
	if c.ServerPort == "" {
		c.ServerPort = defaultServerPort
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Workers == 0 {
		c.Workers = defaultWorkers
	}
	if c.QueueName == "" {
		c.QueueName = defaultQueueName
	}
	if c.GeminiBaseURL == "" {
		c.GeminiBaseURL = defaultGeminiBaseURL
	}
	if f.CacheTTL != "" {
		if d, err := time.ParseDuration(f.CacheTTL); err == nil {
			c.CacheTTL = d
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
