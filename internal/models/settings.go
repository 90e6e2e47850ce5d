package models

import "time"

// DefaultAIModel is used when the settings row has no model configured.
const DefaultAIModel = "gemini-1.5-flash"

// SettingsID is the primary key of the only settings row.
const SettingsID = 1

// Settings holds upstream credentials and AI configuration. There is at most one row.
type Settings struct {
	RadarrURL    string    `json:"radarr_url"`
	RadarrAPIKey string    `json:"radarr_api_key"`
	SonarrURL    string    `json:"sonarr_url"`
	SonarrAPIKey string    `json:"sonarr_api_key"`
	AIAPIKey     string    `json:"ai_api_key"`
	AIModel      string    `json:"ai_model"`
	PromptRules  string    `json:"prompt_rules"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Upstream returns the base URL and API key of the service tracking kind.
func (s *Settings) Upstream(kind Kind) (baseURL, apiKey string) {
	if kind == KindMovie {
		return s.RadarrURL, s.RadarrAPIKey
	}
	return s.SonarrURL, s.SonarrAPIKey
}

// Model returns the configured AI model or DefaultAIModel.
func (s *Settings) Model() string {
	if s.AIModel == "" {
		return DefaultAIModel
	}
	return s.AIModel
}
