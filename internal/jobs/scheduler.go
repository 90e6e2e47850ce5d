package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/voyagen/mediaorganizer/internal/cache"
	"github.com/voyagen/mediaorganizer/internal/models"
)

const (
	scheduleLockKey = "mediaorganizer:lock:scheduled-sync"
	scheduleLockTTL = 30 * time.Second
)

// Scheduler enqueues a sync of both libraries on a cron schedule. When several
// processes share a Redis only the one that takes the lock enqueues per tick.
type Scheduler struct {
	cron       *cron.Cron
	schedule   string
	dispatcher *Dispatcher
	redis      *cache.Redis
	logger     logrus.FieldLogger
}

// NewScheduler creates a Scheduler. An empty schedule disables it.
func NewScheduler(schedule string, d *Dispatcher, r *cache.Redis, logger logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		schedule:   schedule,
		dispatcher: d,
		redis:      r,
		logger:     logger.WithField("component", "scheduler"),
	}
}

// Start registers the sync job and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("scheduled sync disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.Tick(context.Background()); err != nil {
			s.logger.WithError(err).Error("scheduled sync failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.WithField("schedule", s.schedule).Info("scheduler started")
	return nil
}

// Stop stops the cron runner and waits for a running tick to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Tick enqueues one sync per kind unless another process already did so for
// this tick. It reports whether it enqueued.
func (s *Scheduler) Tick(ctx context.Context) (bool, error) {
	if err := cache.TryLock(ctx, s.redis, scheduleLockKey, scheduleLockTTL); err != nil {
		if errors.Is(err, cache.ErrLocked) {
			s.logger.Debug("scheduled sync already queued by another process")
			return false, nil
		}
		return false, err
	}
	// The lock is left to expire so late ticks from other processes are skipped.
	for _, kind := range models.Kinds() {
		if err := s.dispatcher.EnqueueSync(ctx, kind); err != nil {
			return true, err
		}
	}
	return true, nil
}
