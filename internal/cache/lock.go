package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLocked is returned by TryLock when the key is already held.
var ErrLocked = errors.New("lock is already held")

// TryLock claims key for ttl with SET NX or returns ErrLocked. There is no
// release: the key frees itself when ttl elapses.
func TryLock(ctx context.Context, r *Redis, key string, ttl time.Duration) error {
	ok, err := r.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return fmt.Errorf("cache lock %s: %w", key, err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}
