package models

import (
	"errors"
	"fmt"
)

// Kind discriminates movies (Radarr) from series (Sonarr).
type Kind string

// Kind values as stored in media_items.kind.
const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// ErrUnknownKind is returned by ParseKind for anything other than movie or series.
var ErrUnknownKind = errors.New("unknown media kind")

// Kinds lists every supported kind in sync order.
func Kinds() []Kind {
	return []Kind{KindMovie, KindSeries}
}

// ParseKind validates a kind coming from a URL or job payload.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMovie, KindSeries:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Service names the upstream service that tracks this kind.
func (k Kind) Service() string {
	if k == KindMovie {
		return "radarr"
	}
	return "sonarr"
}
