package service

import (
	"strings"

	"github.com/voyagen/mediaorganizer/internal/arr"
)

// CanonicalPath is the location an item is filed under: its root folder when
// upstream reports one, otherwise its own path.
func CanonicalPath(it arr.Item) string {
	if it.RootFolderPath != "" {
		return it.RootFolderPath
	}
	return it.Path
}

// OrganizedStrict is the byte-exact check applied during sync.
func OrganizedStrict(suggested *string, current string) bool {
	return suggested != nil && *suggested == current
}

// OrganizedNormalized is the check applied after a fresh suggestion. Trailing
// slashes are ignored, so "/data/Anime" and "/data/Anime/" match here but not
// in OrganizedStrict.
func OrganizedNormalized(suggested, current string) bool {
	return strings.TrimRight(suggested, "/") == strings.TrimRight(current, "/")
}
