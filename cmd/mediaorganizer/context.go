package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/mediaorganizer/internal/ai"
	"github.com/voyagen/mediaorganizer/internal/cache"
	"github.com/voyagen/mediaorganizer/internal/config"
	"github.com/voyagen/mediaorganizer/internal/jobs"
	"github.com/voyagen/mediaorganizer/internal/logging"
	"github.com/voyagen/mediaorganizer/internal/service"
	"github.com/voyagen/mediaorganizer/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *logrus.Logger
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		var cfg *config.Config
		var err error
		if path != "" {
			cfg, err = config.LoadFromFile(path)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			c.configErr = fmt.Errorf("config: %w", err)
			return
		}
		c.config = cfg
		c.logger = logging.New(cfg.LogLevel)
	})
	return c.config, c.configErr
}

// appDeps is the set of long-lived dependencies shared by every command.
type appDeps struct {
	cfg        *config.Config
	logger     *logrus.Logger
	store      store.Store
	redis      *cache.Redis
	queue      *cache.JobQueue
	dispatcher *jobs.Dispatcher
}

// open migrates and connects the database, connects Redis and builds the
// dispatcher. Callers must Close the result.
func (c *commandContext) open(ctx context.Context) (*appDeps, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	driver, err := cfg.DatabaseDriver()
	if err != nil {
		return nil, err
	}

	db, err := store.Open(ctx, driver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	rds, err := cache.New(cfg.RedisURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	if err := rds.Ping(ctx); err != nil {
		_ = db.Close()
		_ = rds.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	var appStore store.Store = db
	if cfg.CacheTTL > 0 {
		appStore = store.NewCachedStore(db, rds, cfg.CacheTTL, c.logger)
	}
	queue := cache.NewJobQueue(rds, cfg.QueueName)

	c.logger.WithFields(logrus.Fields{"database": driver, "queue": cfg.QueueName}).Info("connected")
	return &appDeps{
		cfg:        cfg,
		logger:     c.logger,
		store:      appStore,
		redis:      rds,
		queue:      queue,
		dispatcher: jobs.NewDispatcher(queue, appStore, c.logger),
	}, nil
}

func (r *appDeps) Close() {
	if err := r.store.Close(); err != nil {
		r.logger.WithError(err).Warn("close store")
	}
	if err := r.redis.Close(); err != nil {
		r.logger.WithError(err).Warn("close redis")
	}
}

// engine builds the reconciliation engine used by workers.
func (r *appDeps) engine() *service.Engine {
	return service.NewEngine(service.Deps{
		Store:     r.store,
		Clients:   service.ArrClients(r.logger),
		Suggester: ai.NewSuggester(ai.NewGeminiClient(r.cfg.GeminiBaseURL), r.logger.WithField("component", "ai")),
		Logger:    r.logger,
	})
}
