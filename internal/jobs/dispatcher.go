// Package jobs turns trigger requests into queued work and runs that work in
// background workers.
package jobs

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/mediaorganizer/internal/cache"
	"github.com/voyagen/mediaorganizer/internal/models"
	"github.com/voyagen/mediaorganizer/internal/store"
)

// Dispatcher enqueues sync and analyze jobs. It never waits for them to run.
type Dispatcher struct {
	queue  *cache.JobQueue
	store  store.Store
	logger logrus.FieldLogger
}

// NewDispatcher creates a Dispatcher that pushes onto queue and reads item
// selections from s.
func NewDispatcher(queue *cache.JobQueue, s store.Store, logger logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{queue: queue, store: s, logger: logger.WithField("component", "dispatcher")}
}

// EnqueueSync queues a library sync for kind.
func (d *Dispatcher) EnqueueSync(ctx context.Context, kind models.Kind) error {
	if err := d.queue.Push(ctx, cache.Job{Op: cache.OpSync, Kind: kind}); err != nil {
		return fmt.Errorf("enqueue sync %s: %w", kind, err)
	}
	d.logger.WithField("kind", kind).Info("sync queued")
	return nil
}

// EnqueueAnalyze queues analysis of a single item.
func (d *Dispatcher) EnqueueAnalyze(ctx context.Context, id int64) error {
	if err := d.queue.Push(ctx, cache.Job{Op: cache.OpAnalyze, ItemID: id}); err != nil {
		return fmt.Errorf("enqueue analyze %d: %w", id, err)
	}
	return nil
}

// EnqueueAnalyzeAll queues every item of kind that is neither organized nor ignored.
func (d *Dispatcher) EnqueueAnalyzeAll(ctx context.Context, kind models.Kind) (int, error) {
	return d.enqueueMatching(ctx, store.NeedsAttention(&kind), "analyze-all")
}

// EnqueueAnalyzeQuick is EnqueueAnalyzeAll restricted to items that have no
// suggestion yet.
func (d *Dispatcher) EnqueueAnalyzeQuick(ctx context.Context, kind models.Kind) (int, error) {
	f := store.NeedsAttention(&kind)
	f.UnsuggestedOnly = true
	return d.enqueueMatching(ctx, f, "analyze-quick")
}

// EnqueueAnalyzeSelected queues the given item ids as-is.
func (d *Dispatcher) EnqueueAnalyzeSelected(ctx context.Context, ids []int64) (int, error) {
	for i, id := range ids {
		if err := d.EnqueueAnalyze(ctx, id); err != nil {
			return i, err
		}
	}
	d.logger.WithField("count", len(ids)).Info("analyze-selected queued")
	return len(ids), nil
}

// QueueDepth returns the number of jobs waiting to be picked up.
func (d *Dispatcher) QueueDepth(ctx context.Context) (int64, error) {
	return d.queue.Len(ctx)
}

// ClearQueue drops all pending jobs. Jobs already running finish normally.
func (d *Dispatcher) ClearQueue(ctx context.Context) (int64, error) {
	n, err := d.queue.Clear(ctx)
	if err != nil {
		return 0, err
	}
	d.logger.WithField("dropped", n).Info("queue cleared")
	return n, nil
}

func (d *Dispatcher) enqueueMatching(ctx context.Context, f store.ItemFilter, label string) (int, error) {
	items, err := d.store.ListItems(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("%s: list items: %w", label, err)
	}
	for i := range items {
		if err := d.EnqueueAnalyze(ctx, items[i].ID); err != nil {
			return i, err
		}
	}
	d.logger.WithFields(logrus.Fields{"kind": *f.Kind, "count": len(items)}).Info(label + " queued")
	return len(items), nil
}
