package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/mediaorganizer/internal/arr"
	"github.com/voyagen/mediaorganizer/internal/models"
	"github.com/voyagen/mediaorganizer/internal/store"
)

// SyncResult counts what one sync did.
type SyncResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// SyncLibrary pulls the library for kind and reconciles it into the store.
// New items are created unsuggested; known items get title, path and overview
// refreshed while their suggestion and ignored flag are left alone. Items
// missing upstream are kept. All writes of one run commit together.
func (e *Engine) SyncLibrary(ctx context.Context, kind models.Kind) (SyncResult, error) {
	var res SyncResult
	log := e.logger.WithFields(logrus.Fields{"op": "sync", "kind": kind})
	start := time.Now()

	st, err := e.settings(ctx)
	if err != nil {
		return res, fmt.Errorf("load settings: %w", err)
	}
	if st == nil {
		log.Warn("no settings configured, skipping sync")
		return res, nil
	}

	lib, err := e.client(st, kind)
	if err != nil {
		return res, fmt.Errorf("upstream client: %w", err)
	}
	upstream := dedupe(lib.Library(ctx))
	if len(upstream) == 0 {
		log.Info("upstream returned no items")
		return res, nil
	}

	existing, err := e.store.ListItemsByKind(ctx, kind)
	if err != nil {
		return res, fmt.Errorf("ListItemsByKind: %w", err)
	}
	byExternal := make(map[int64]*models.MediaItem, len(existing))
	for i := range existing {
		byExternal[existing[i].ExternalID] = &existing[i]
	}

	var batch store.SyncBatch
	for _, it := range upstream {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("sync cancelled: %w", err)
		}
		path := CanonicalPath(it)
		overview := optional(it.Overview)

		rec, ok := byExternal[it.ExternalID]
		if !ok {
			batch.Create = append(batch.Create, &models.MediaItem{
				ExternalID:  it.ExternalID,
				Kind:        kind,
				AltID:       it.AltID,
				Title:       it.Title,
				Overview:    overview,
				CurrentPath: path,
			})
			continue
		}

		organized := OrganizedStrict(rec.SuggestedPath, path)
		if rec.Title == it.Title && rec.CurrentPath == path &&
			equalOptional(rec.Overview, overview) && rec.IsOrganized == organized {
			res.Unchanged++
			continue
		}
		rec.Title = it.Title
		rec.CurrentPath = path
		rec.Overview = overview
		rec.IsOrganized = organized
		batch.Update = append(batch.Update, rec)
	}

	if err := e.store.SaveSyncBatch(ctx, batch); err != nil {
		return res, fmt.Errorf("SaveSyncBatch: %w", err)
	}
	res.Created = len(batch.Create)
	res.Updated = len(batch.Update)

	log.WithFields(logrus.Fields{
		"created":   res.Created,
		"updated":   res.Updated,
		"unchanged": res.Unchanged,
		"duration":  time.Since(start).Round(time.Millisecond),
	}).Info("sync complete")
	return res, nil
}

// dedupe keeps the last occurrence of each external id, in first-seen order.
func dedupe(items []arr.Item) []arr.Item {
	if len(items) == 0 {
		return nil
	}
	index := make(map[int64]int, len(items))
	out := make([]arr.Item, 0, len(items))
	for _, it := range items {
		if i, ok := index[it.ExternalID]; ok {
			out[i] = it
			continue
		}
		index[it.ExternalID] = len(out)
		out = append(out, it)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
