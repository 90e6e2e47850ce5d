package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("WORKERS", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != defaultDatabaseURL {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.Workers != defaultWorkers || cfg.QueueName != defaultQueueName {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CacheTTL != defaultCacheTTL {
		t.Fatalf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.SyncSchedule != "" {
		t.Fatalf("expected scheduled sync disabled, got %q", cfg.SyncSchedule)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/media?sslmode=disable")
	t.Setenv("WORKERS", "4")
	t.Setenv("SYNC_SCHEDULE", "0 */6 * * *")
	t.Setenv("CACHE_TTL", "30s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 4 {
		t.Fatalf("Workers = %d", cfg.Workers)
	}
	if cfg.SyncSchedule != "0 */6 * * *" {
		t.Fatalf("SyncSchedule = %q", cfg.SyncSchedule)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("CacheTTL = %v", cfg.CacheTTL)
	}
	driver, err := cfg.DatabaseDriver()
	if err != nil || driver != "postgres" {
		t.Fatalf("DatabaseDriver = %q, %v", driver, err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "mysql://localhost/media")
	if _, err := Load(); !errors.Is(err, ErrUnsupportedDatabase) {
		t.Fatalf("expected ErrUnsupportedDatabase, got %v", err)
	}

	t.Setenv("DATABASE_URL", "sqlite://media.db")
	t.Setenv("WORKERS", "0")
	if _, err := Load(); !errors.Is(err, ErrInvalidWorkers) {
		t.Fatalf("expected ErrInvalidWorkers, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("database_url: sqlite:///var/lib/media.db\nworkers: 3\ncache_ttl: 10s\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Workers != 3 || cfg.CacheTTL != 10*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.RedisURL != defaultRedisURL || cfg.ServerPort != defaultServerPort {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadFromFileRequiresDatabaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("workers: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); !errors.Is(err, ErrMissingDatabaseURL) {
		t.Fatalf("expected ErrMissingDatabaseURL, got %v", err)
	}
}
