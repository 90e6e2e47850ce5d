package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/voyagen/mediaorganizer/internal/cache"
	"github.com/voyagen/mediaorganizer/internal/logging"
	"github.com/voyagen/mediaorganizer/internal/models"
)

func TestCachedStoreInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	r, err := cache.New("redis://" + mr.Addr() + "/0")
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	cs := NewCachedStore(newTestSQLite(t), r, time.Minute, logging.Discard())

	st, err := cs.EnsureSettings(ctx)
	if err != nil {
		t.Fatalf("EnsureSettings: %v", err)
	}
	if !mr.Exists(keySettings) {
		t.Fatalf("settings not cached")
	}
	st.SonarrURL = "http://sonarr:8989"
	if err := cs.UpdateSettings(ctx, st); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	got, err := cs.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got.SonarrURL != "http://sonarr:8989" {
		t.Fatalf("stale settings served: %+v", got)
	}

	if n, _ := cs.CountItems(ctx, NeedsAttention(nil)); n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
	item := &models.MediaItem{ExternalID: 1, Kind: models.KindMovie, Title: "Heat", CurrentPath: "/m/Heat"}
	if err := cs.SaveSyncBatch(ctx, SyncBatch{Create: []*models.MediaItem{item}}); err != nil {
		t.Fatalf("SaveSyncBatch: %v", err)
	}
	if n, _ := cs.CountItems(ctx, NeedsAttention(nil)); n != 1 {
		t.Fatalf("count after sync = %d, want 1", n)
	}
	if err := cs.SetIgnored(ctx, item.ID, true); err != nil {
		t.Fatalf("SetIgnored: %v", err)
	}
	if n, _ := cs.CountItems(ctx, NeedsAttention(nil)); n != 0 {
		t.Fatalf("count after ignore = %d, want 0", n)
	}
}

func TestCachedStoreFallsBackOnCorruptEntry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	r, err := cache.New("redis://" + mr.Addr() + "/0")
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	cs := NewCachedStore(newTestSQLite(t), r, time.Minute, logging.Discard())
	if err := mr.Set(keySettings, "{broken"); err != nil {
		t.Fatal(err)
	}
	if _, err := cs.EnsureSettings(ctx); err != nil {
		t.Fatalf("EnsureSettings: %v", err)
	}
	if raw, _ := mr.Get(keySettings); raw == "{broken" {
		t.Fatal("corrupt entry was not replaced")
	}
}
