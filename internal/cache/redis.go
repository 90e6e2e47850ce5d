package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the shared connection behind the job queue, the scheduler lock and
// the settings/count cache in front of the store.
type Redis struct {
	client *redis.Client
}

// New connects to REDIS_URL ("redis://host:6379/0"). The connection is lazy;
// serve and the workers call Ping before taking jobs.
func New(rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Get decodes the JSON cached under key. found is false on a miss; a value
// that no longer decodes into T is reported as an error so the caller can
// fall back to the store.
func Get[T any](ctx context.Context, r *Redis, key string) (v T, found bool, err error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores v as JSON for ttl.
func Set(ctx context.Context, r *Redis, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// Del drops cached keys. Missing keys are not an error.
func Del(ctx context.Context, r *Redis, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// DelPattern drops every key matching pattern, such as all count entries
// ("mediaorganizer:counts:*") after a sync batch lands. Keys are walked with
// SCAN and removed with UNLINK one page at a time.
func DelPattern(ctx context.Context, r *Redis, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, scanPage).Iterator()
	page := make([]string, 0, scanPage)
	for iter.Next(ctx) {
		page = append(page, iter.Val())
		if len(page) == scanPage {
			if err := r.client.Unlink(ctx, page...).Err(); err != nil {
				return fmt.Errorf("cache unlink %s: %w", pattern, err)
			}
			page = page[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %s: %w", pattern, err)
	}
	if len(page) > 0 {
		if err := r.client.Unlink(ctx, page...).Err(); err != nil {
			return fmt.Errorf("cache unlink %s: %w", pattern, err)
		}
	}
	return nil
}

const scanPage = 100
