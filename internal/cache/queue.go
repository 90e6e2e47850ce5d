package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyagen/mediaorganizer/internal/models"
)

// Op names the work a Job performs.
type Op string

const (
	OpSync    Op = "sync"
	OpAnalyze Op = "analyze"
)

// Job is one unit of background work.
type Job struct {
	Op         Op          `json:"op"`
	Kind       models.Kind `json:"kind,omitempty"`
	ItemID     int64       `json:"item_id,omitempty"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
}

// ErrMalformedJob wraps payloads that could not be decoded.
var ErrMalformedJob = errors.New("malformed job payload")

// JobQueue is a FIFO on a Redis list: LPUSH to enqueue, BRPOP to dequeue.
type JobQueue struct {
	r   *Redis
	key string
}

// NewJobQueue returns the queue stored under key.
func NewJobQueue(r *Redis, key string) *JobQueue {
	return &JobQueue{r: r, key: key}
}

// Push enqueues job.
func (q *JobQueue) Push(ctx context.Context, job Job) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue marshal: %w", err)
	}
	return q.r.client.LPush(ctx, q.key, data).Err()
}

// Pop blocks until a job is available or the timeout expires. On timeout or
// context cancellation it returns (nil, nil) so the caller can loop and check
// for shutdown.
func (q *JobQueue) Pop(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.r.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("queue dequeue: %w", err)
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	return &job, nil
}

// Len returns the number of pending jobs.
func (q *JobQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.r.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue len: %w", err)
	}
	return n, nil
}

// Clear drops every pending job and returns how many were dropped. Jobs a
// worker has already popped are unaffected.
func (q *JobQueue) Clear(ctx context.Context) (int64, error) {
	var n *redis.IntCmd
	_, err := q.r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		n = pipe.LLen(ctx, q.key)
		pipe.Del(ctx, q.key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("queue clear: %w", err)
	}
	return n.Val(), nil
}
