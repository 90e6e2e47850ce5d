package models

import "time"

// MediaItem is the local record of one Radarr movie or Sonarr series.
// (ExternalID, Kind) is unique; ExternalID alone is not.
type MediaItem struct {
	ID            int64     `json:"id"`
	ExternalID    int64     `json:"external_id"`
	Kind          Kind      `json:"kind"`
	AltID         *int64    `json:"alt_id,omitempty"` // tmdbId for movies, tvdbId for series
	Title         string    `json:"title"`
	Overview      *string   `json:"overview,omitempty"`
	CurrentPath   string    `json:"current_path"`
	SuggestedPath *string   `json:"suggested_path"`
	IsOrganized   bool      `json:"is_organized"`
	Ignored       bool      `json:"ignored"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
