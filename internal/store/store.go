package store

import (
	"context"
	"errors"

	"github.com/voyagen/mediaorganizer/internal/models"
)

// ErrNotFound is returned when a settings row or media item does not exist.
var ErrNotFound = errors.New("not found")

// Store defines persistence for the settings row and media items.
type Store interface {
	// GetSettings returns the settings row or ErrNotFound.
	GetSettings(ctx context.Context) (*models.Settings, error)
	// EnsureSettings returns the settings row, creating an empty one if absent.
	EnsureSettings(ctx context.Context) (*models.Settings, error)
	// UpdateSettings writes s as the settings row.
	UpdateSettings(ctx context.Context, s *models.Settings) error

	// GetItem returns a single media item by local id.
	GetItem(ctx context.Context, id int64) (*models.MediaItem, error)
	// ListItemsByKind returns every item of kind, ignored ones included.
	ListItemsByKind(ctx context.Context, kind models.Kind) ([]models.MediaItem, error)
	// ListItems returns items matching the filter in the requested order.
	ListItems(ctx context.Context, filter ItemFilter) ([]models.MediaItem, error)
	// CountItems counts items matching the filter.
	CountItems(ctx context.Context, filter ItemFilter) (int, error)

	// SaveSyncBatch inserts and updates the records produced by one sync in a
	// single transaction. Updates only touch title, current_path, overview and
	// is_organized.
	SaveSyncBatch(ctx context.Context, batch SyncBatch) error
	// UpdateSuggestion sets suggested_path and is_organized for one item.
	UpdateSuggestion(ctx context.Context, id int64, suggestedPath string, organized bool) error
	// SetIgnored sets the user exclusion flag for one item.
	SetIgnored(ctx context.Context, id int64, ignored bool) error

	Close() error
}

// SyncBatch holds the changes computed by one sync run.
type SyncBatch struct {
	Create []*models.MediaItem
	Update []*models.MediaItem
}

// Empty reports whether the batch has nothing to write.
func (b SyncBatch) Empty() bool {
	return len(b.Create) == 0 && len(b.Update) == 0
}

// SortField selects the ORDER BY column for ListItems.
type SortField string

const (
	SortTitle     SortField = "title"
	SortPath      SortField = "path"
	SortSuggested SortField = "suggested"
)

// ParseSortField maps a query value to a SortField, defaulting to title.
func ParseSortField(s string) SortField {
	switch SortField(s) {
	case SortPath, SortSuggested:
		return SortField(s)
	}
	return SortTitle
}

// ItemFilter holds optional filters for listing and counting items.
// Pointer fields: nil = any value.
type ItemFilter struct {
	Kind            *models.Kind
	Organized       *bool
	Ignored         *bool
	UnsuggestedOnly bool // only items whose suggested_path is NULL
	Sort            SortField
	Desc            bool
}

// NeedsAttention selects items of kind that are neither organized nor ignored.
// A nil kind selects both kinds.
func NeedsAttention(kind *models.Kind) ItemFilter {
	f := false
	return ItemFilter{Kind: kind, Organized: &f, Ignored: &f}
}
