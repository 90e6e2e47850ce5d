package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/mediaorganizer/internal/ai"
	"github.com/voyagen/mediaorganizer/internal/store"
)

// AnalyzeResult reports the outcome of analyzing one item.
type AnalyzeResult struct {
	Suggested   bool   `json:"suggested"`
	Path        string `json:"path,omitempty"`
	IsOrganized bool   `json:"is_organized"`
}

// AnalyzeItem asks the suggester where item id belongs and records the answer.
// A missing item, missing settings or no suggestion leave the store untouched.
func (e *Engine) AnalyzeItem(ctx context.Context, id int64) (AnalyzeResult, error) {
	var res AnalyzeResult
	log := e.logger.WithFields(logrus.Fields{"op": "analyze", "item_id": id})

	item, err := e.store.GetItem(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("item not found, skipping analyze")
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("GetItem: %w", err)
	}

	st, err := e.settings(ctx)
	if err != nil {
		return res, fmt.Errorf("load settings: %w", err)
	}
	if st == nil {
		log.Warn("no settings configured, skipping analyze")
		return res, nil
	}
	log = log.WithFields(logrus.Fields{"kind": item.Kind, "title": item.Title})

	lib, err := e.client(st, item.Kind)
	if err != nil {
		return res, fmt.Errorf("upstream client: %w", err)
	}
	folders := lib.RootFolders(ctx)
	media := ai.Media{Title: item.Title, AltID: item.AltID}
	if item.Overview != nil {
		media.Overview = *item.Overview
	}
	opts := ai.Options{APIKey: st.AIAPIKey, Model: st.Model(), Rules: st.PromptRules}

	path, ok := e.suggester.SuggestLocation(ctx, opts, media, folders)
	if !ok {
		log.Info("no suggestion")
		return res, nil
	}

	organized := OrganizedNormalized(path, item.CurrentPath)
	if err := e.store.UpdateSuggestion(ctx, id, path, organized); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("item removed during analyze")
			return res, nil
		}
		return res, fmt.Errorf("UpdateSuggestion: %w", err)
	}
	log.WithFields(logrus.Fields{"suggested": path, "is_organized": organized}).Info("analyze complete")
	return AnalyzeResult{Suggested: true, Path: path, IsOrganized: organized}, nil
}
