package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/voyagen/mediaorganizer/internal/models"
)

// SQLite implements Store on a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// sqliteDSN turns sqlite://path?query into a modernc DSN with pragmas that
// every pooled connection needs.
func sqliteDSN(databaseURL string) string {
	dsn := databaseURL
	if i := strings.Index(dsn, "://"); i >= 0 {
		dsn = dsn[i+3:]
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

// NewSQLite opens the database at databaseURL (sqlite://path). Migrations must
// already have been applied with RunMigrations.
func NewSQLite(ctx context.Context, databaseURL string) (*SQLite, error) {
	db, err := sql.Open("sqlite", sqliteDSN(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) GetSettings(ctx context.Context) (*models.Settings, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM settings WHERE id = ?`, models.SettingsID)
	var st models.Settings
	var updated sqliteTime
	err := row.Scan(&st.RadarrURL, &st.RadarrAPIKey, &st.SonarrURL, &st.SonarrAPIKey,
		&st.AIAPIKey, &st.AIModel, &st.PromptRules, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetSettings: %w", err)
	}
	st.UpdatedAt = updated.Time
	return &st, nil
}

func (s *SQLite) EnsureSettings(ctx context.Context) (*models.Settings, error) {
	if _, err := s.db.ExecContext(ctx, ensureSettingsSQL, models.SettingsID, models.DefaultAIModel, formatTime(time.Now())); err != nil {
		return nil, fmt.Errorf("EnsureSettings: %w", err)
	}
	return s.GetSettings(ctx)
}

func (s *SQLite) UpdateSettings(ctx context.Context, st *models.Settings) error {
	st.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, upsertSettingsSQL, models.SettingsID,
		st.RadarrURL, st.RadarrAPIKey, st.SonarrURL, st.SonarrAPIKey,
		st.AIAPIKey, st.AIModel, st.PromptRules, formatTime(st.UpdatedAt))
	if err != nil {
		return fmt.Errorf("UpdateSettings: %w", err)
	}
	return nil
}

func (s *SQLite) GetItem(ctx context.Context, id int64) (*models.MediaItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM media_items WHERE id = ?`, id)
	item, err := scanSQLiteItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetItem: %w", err)
	}
	return item, nil
}

func (s *SQLite) ListItemsByKind(ctx context.Context, kind models.Kind) ([]models.MediaItem, error) {
	return s.ListItems(ctx, ItemFilter{Kind: &kind})
}

func (s *SQLite) ListItems(ctx context.Context, filter ItemFilter) ([]models.MediaItem, error) {
	where, args := filter.where()
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM media_items`+where+filter.orderBy(), sqliteArgs(args)...)
	if err != nil {
		return nil, fmt.Errorf("ListItems: %w", err)
	}
	defer rows.Close()

	var items []models.MediaItem
	for rows.Next() {
		item, err := scanSQLiteItem(rows)
		if err != nil {
			return nil, fmt.Errorf("ListItems scan: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *SQLite) CountItems(ctx context.Context, filter ItemFilter) (int, error) {
	where, args := filter.where()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM media_items`+where, sqliteArgs(args)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountItems: %w", err)
	}
	return n, nil
}

func (s *SQLite) SaveSyncBatch(ctx context.Context, batch SyncBatch) error {
	if batch.Empty() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, item := range batch.Create {
		item.CreatedAt, item.UpdatedAt = now, now
		err := tx.QueryRowContext(ctx, insertItemSQL,
			item.ExternalID, string(item.Kind), item.AltID, item.Title, item.Overview, item.CurrentPath,
			item.IsOrganized, item.Ignored, formatTime(now), formatTime(now),
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert item %s/%d: %w", item.Kind, item.ExternalID, err)
		}
	}
	for _, item := range batch.Update {
		item.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, updateSyncedItemSQL,
			item.Title, item.CurrentPath, item.Overview, item.IsOrganized, formatTime(now), item.ID,
		); err != nil {
			return fmt.Errorf("update item %d: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sync tx: %w", err)
	}
	return nil
}

func (s *SQLite) UpdateSuggestion(ctx context.Context, id int64, suggestedPath string, organized bool) error {
	res, err := s.db.ExecContext(ctx, updateSuggestionSQL, suggestedPath, organized, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("UpdateSuggestion: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLite) SetIgnored(ctx context.Context, id int64, ignored bool) error {
	res, err := s.db.ExecContext(ctx, setIgnoredSQL, ignored, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("SetIgnored: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteItem(row rowScanner) (*models.MediaItem, error) {
	var item models.MediaItem
	var kind string
	var created, updated sqliteTime
	if err := row.Scan(&item.ID, &item.ExternalID, &kind, &item.AltID, &item.Title, &item.Overview,
		&item.CurrentPath, &item.SuggestedPath, &item.IsOrganized, &item.Ignored, &created, &updated); err != nil {
		return nil, err
	}
	item.Kind = models.Kind(kind)
	item.CreatedAt = created.Time
	item.UpdatedAt = updated.Time
	return &item, nil
}

// sqliteArgs converts booleans to 0/1 for comparison against INTEGER columns.
func sqliteArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if b, ok := a.(bool); ok {
			if b {
				out[i] = 1
			} else {
				out[i] = 0
			}
			continue
		}
		out[i] = a
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// sqliteTime scans TEXT timestamps, whichever form the driver hands back.
type sqliteTime struct {
	Time time.Time
}

func (t *sqliteTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
	case time.Time:
		t.Time = v.UTC()
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case int64:
		t.Time = time.Unix(v, 0).UTC()
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

func (t *sqliteTime) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("parse timestamp %q", s)
}
