package arr

import "github.com/voyagen/mediaorganizer/internal/models"

// Item is the canonical shape of one library entry, whichever service it came from.
type Item struct {
	ExternalID     int64
	Title          string
	Path           string
	RootFolderPath string
	Overview       string
	AltID          *int64
}

type rootFolderResource struct {
	Path string `json:"path"`
}

// movieResource is the subset of Radarr's /api/v3/movie entry we read.
type movieResource struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Path           string `json:"path"`
	RootFolderPath string `json:"rootFolderPath"`
	TmdbID         *int64 `json:"tmdbId"`
	Overview       string `json:"overview"`
}

func (m movieResource) item() Item {
	return Item{
		ExternalID:     m.ID,
		Title:          m.Title,
		Path:           m.Path,
		RootFolderPath: m.RootFolderPath,
		Overview:       m.Overview,
		AltID:          nonZero(m.TmdbID),
	}
}

// seriesResource is the subset of Sonarr's /api/v3/series entry we read.
type seriesResource struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Path           string `json:"path"`
	RootFolderPath string `json:"rootFolderPath"`
	TvdbID         *int64 `json:"tvdbId"`
	Overview       string `json:"overview"`
}

func (s seriesResource) item() Item {
	return Item{
		ExternalID:     s.ID,
		Title:          s.Title,
		Path:           s.Path,
		RootFolderPath: s.RootFolderPath,
		Overview:       s.Overview,
		AltID:          nonZero(s.TvdbID),
	}
}

// Radarr/Sonarr report 0 for unmatched ids.
func nonZero(id *int64) *int64 {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

// variant binds a kind to its library endpoint and resource decoder.
type variant struct {
	kind     models.Kind
	endpoint string
	decode   func(body []byte) ([]Item, error)
}

var variants = map[models.Kind]variant{
	models.KindMovie:  {kind: models.KindMovie, endpoint: "movie", decode: decodeItems[movieResource]},
	models.KindSeries: {kind: models.KindSeries, endpoint: "series", decode: decodeItems[seriesResource]},
}

type resource interface {
	movieResource | seriesResource
	item() Item
}
