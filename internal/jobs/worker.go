package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/voyagen/mediaorganizer/internal/cache"
	"github.com/voyagen/mediaorganizer/internal/models"
	"github.com/voyagen/mediaorganizer/internal/service"
)

const (
	defaultPollTimeout = 5 * time.Second
	errorBackoff       = 2 * time.Second
)

// Handler executes jobs. *service.Engine satisfies it.
type Handler interface {
	SyncLibrary(ctx context.Context, kind models.Kind) (service.SyncResult, error)
	AnalyzeItem(ctx context.Context, id int64) (service.AnalyzeResult, error)
}

// Worker runs a fixed number of consumer loops against the job queue.
type Worker struct {
	queue       *cache.JobQueue
	handler     Handler
	concurrency int
	pollTimeout time.Duration
	logger      logrus.FieldLogger
}

// NewWorker creates a Worker with concurrency consumer loops (minimum 1).
func NewWorker(queue *cache.JobQueue, handler Handler, concurrency int, logger logrus.FieldLogger) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		queue:       queue,
		handler:     handler,
		concurrency: concurrency,
		pollTimeout: defaultPollTimeout,
		logger:      logger.WithField("component", "worker"),
	}
}

// Run consumes jobs until ctx is cancelled. Job failures are logged and never
// stop the loops.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		log := w.logger.WithField("slot", i)
		g.Go(func() error {
			w.loop(ctx, log)
			return nil
		})
	}
	w.logger.WithField("concurrency", w.concurrency).Info("worker started")
	err := g.Wait()
	w.logger.Info("worker stopped")
	return err
}

func (w *Worker) loop(ctx context.Context, log logrus.FieldLogger) {
	for ctx.Err() == nil {
		job, err := w.queue.Pop(ctx, w.pollTimeout)
		if errors.Is(err, cache.ErrMalformedJob) {
			log.WithError(err).Warn("dropping malformed job")
			continue
		}
		if err != nil {
			log.WithError(err).Error("dequeue failed")
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
			continue
		}
		if job == nil {
			continue
		}
		if err := w.Handle(ctx, *job); err != nil {
			log.WithError(err).WithFields(logrus.Fields{"op": job.Op, "kind": job.Kind, "item_id": job.ItemID}).Error("job failed")
		}
	}
}

// Handle runs a single job.
func (w *Worker) Handle(ctx context.Context, job cache.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	log := w.logger.WithFields(logrus.Fields{"op": job.Op, "queued_for": time.Since(job.EnqueuedAt).Round(time.Millisecond)})
	switch job.Op {
	case cache.OpSync:
		if _, err := models.ParseKind(string(job.Kind)); err != nil {
			return err
		}
		log.WithField("kind", job.Kind).Debug("running sync")
		_, err = w.handler.SyncLibrary(ctx, job.Kind)
	case cache.OpAnalyze:
		log.WithField("item_id", job.ItemID).Debug("running analyze")
		_, err = w.handler.AnalyzeItem(ctx, job.ItemID)
	default:
		err = fmt.Errorf("unknown job op %q", job.Op)
	}
	return err
}
