package ai

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Options carries the per-call AI configuration taken from the settings row.
type Options struct {
	APIKey string
	Model  string
	Rules  string
}

// Suggester asks a Provider where an item belongs. It never returns an error:
// every failure is logged and reported as "no suggestion".
type Suggester struct {
	provider Provider
	logger   logrus.FieldLogger
}

// NewSuggester wraps provider.
func NewSuggester(provider Provider, logger logrus.FieldLogger) *Suggester {
	return &Suggester{provider: provider, logger: logger}
}

// SuggestLocation returns the suggested root folder for m, or ok=false.
func (s *Suggester) SuggestLocation(ctx context.Context, opts Options, m Media, folders []string) (string, bool) {
	if opts.APIKey == "" || len(folders) == 0 {
		return "", false
	}

	log := s.logger.WithFields(logrus.Fields{"title": m.Title, "model": opts.Model})
	text, err := s.provider.Generate(ctx, GenerateRequest{
		APIKey: opts.APIKey,
		Model:  opts.Model,
		Prompt: BuildPrompt(m, folders, opts.Rules),
	})
	if err != nil {
		log.WithError(err).Error("AI suggestion failed")
		return "", false
	}

	path, ok := MatchFolder(text, folders)
	if !ok {
		log.Warn("AI returned no usable suggestion")
		return "", false
	}
	log.WithField("suggested", path).Debug("AI suggestion received")
	return path, true
}
