// Package ai picks a root folder for a media item using a text-generation model.
package ai

import "context"

// GenerateRequest is a single prompt sent to a model.
type GenerateRequest struct {
	APIKey string
	Model  string
	Prompt string
}

// Provider generates plain text for a prompt.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
