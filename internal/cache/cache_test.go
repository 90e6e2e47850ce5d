package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/voyagen/mediaorganizer/internal/models"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := New("redis://" + mr.Addr() + "/0")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestJobQueueIsFIFO(t *testing.T) {
	r, _ := newTestRedis(t)
	q := NewJobQueue(r, "test:jobs")
	ctx := context.Background()

	jobs := []Job{
		{Op: OpSync, Kind: models.KindMovie},
		{Op: OpAnalyze, ItemID: 42},
		{Op: OpAnalyze, ItemID: 42},
	}
	for _, j := range jobs {
		if err := q.Push(ctx, j); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	if n, err := q.Len(ctx); err != nil || n != 3 {
		t.Fatalf("Len = %d, %v", n, err)
	}

	for i, want := range jobs {
		got, err := q.Pop(ctx, time.Second)
		if err != nil {
			t.Fatalf("Pop %d: %v", i, err)
		}
		if got == nil || got.Op != want.Op || got.Kind != want.Kind || got.ItemID != want.ItemID {
			t.Fatalf("Pop %d = %+v, want %+v", i, got, want)
		}
		if got.EnqueuedAt.IsZero() {
			t.Fatalf("expected EnqueuedAt to be stamped")
		}
	}
}

func TestJobQueuePopTimeout(t *testing.T) {
	r, _ := newTestRedis(t)
	q := NewJobQueue(r, "test:jobs")
	job, err := q.Pop(context.Background(), 50*time.Millisecond)
	if err != nil || job != nil {
		t.Fatalf("expected (nil, nil) on timeout, got %+v, %v", job, err)
	}
}

func TestJobQueueClear(t *testing.T) {
	r, _ := newTestRedis(t)
	q := NewJobQueue(r, "test:jobs")
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := q.Push(ctx, Job{Op: OpAnalyze, ItemID: int64(i)}); err != nil {
			t.Fatal(err)
		}
	}
	dropped, err := q.Clear(ctx)
	if err != nil || dropped != 5 {
		t.Fatalf("Clear = %d, %v", dropped, err)
	}
	if n, _ := q.Len(ctx); n != 0 {
		t.Fatalf("expected empty queue, got %d", n)
	}
}

func TestJobQueueMalformedPayload(t *testing.T) {
	r, mr := newTestRedis(t)
	q := NewJobQueue(r, "test:jobs")
	if _, err := mr.Lpush("test:jobs", "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Pop(context.Background(), time.Second); !errors.Is(err, ErrMalformedJob) {
		t.Fatalf("expected ErrMalformedJob, got %v", err)
	}
}

func TestTryLock(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	if err := TryLock(ctx, r, "lock:sync", time.Minute); err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if err := TryLock(ctx, r, "lock:sync", time.Minute); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if !mr.Exists("lock:sync") {
		t.Fatal("expected lock key to be set")
	}
	if ttl := mr.TTL("lock:sync"); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if mr.Exists("lock:sync") {
		t.Fatal("expected lock to expire")
	}
	if err := TryLock(ctx, r, "lock:sync", time.Minute); err != nil {
		t.Fatalf("TryLock after expiry: %v", err)
	}
}

func TestTryLockUnreachable(t *testing.T) {
	r, mr := newTestRedis(t)
	mr.Close()
	err := TryLock(context.Background(), r, "lock:sync", time.Minute)
	if err == nil || errors.Is(err, ErrLocked) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()

	if err := Set(ctx, r, "counts:a", map[string]int{"total": 3}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found, err := Get[map[string]int](ctx, r, "counts:a")
	if err != nil || !found || got["total"] != 3 {
		t.Fatalf("Get = %v, %v, %v", got, found, err)
	}
	if err := Set(ctx, r, "counts:b", 1, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := DelPattern(ctx, r, "counts:*"); err != nil {
		t.Fatalf("DelPattern: %v", err)
	}
	if _, found, err := Get[int](ctx, r, "counts:b"); err != nil || found {
		t.Fatalf("expected miss after DelPattern, got found=%v err=%v", found, err)
	}
}

func TestGetUndecodableValue(t *testing.T) {
	r, mr := newTestRedis(t)
	if err := mr.Set("mediaorganizer:settings", "not json"); err != nil {
		t.Fatal(err)
	}
	if _, found, err := Get[models.Settings](context.Background(), r, "mediaorganizer:settings"); err == nil || found {
		t.Fatalf("expected decode error, got found=%v err=%v", found, err)
	}
}

func TestDelPatternSpansPages(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()
	for i := 0; i < 2*scanPage+7; i++ {
		if err := Set(ctx, r, fmt.Sprintf("mediaorganizer:counts:%d", i), i, time.Minute); err != nil {
			t.Fatal(err)
		}
	}
	if err := Set(ctx, r, "mediaorganizer:settings", 1, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := DelPattern(ctx, r, "mediaorganizer:counts:*"); err != nil {
		t.Fatalf("DelPattern: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "mediaorganizer:settings" {
		t.Fatalf("remaining keys = %v", keys)
	}
}
