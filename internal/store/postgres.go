package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyagen/mediaorganizer/internal/models"
)

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) GetSettings(ctx context.Context) (*models.Settings, error) {
	var st models.Settings
	err := p.pool.QueryRow(ctx, rebind(`SELECT `+settingsColumns+` FROM settings WHERE id = ?`), models.SettingsID).
		Scan(&st.RadarrURL, &st.RadarrAPIKey, &st.SonarrURL, &st.SonarrAPIKey,
			&st.AIAPIKey, &st.AIModel, &st.PromptRules, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetSettings: %w", err)
	}
	return &st, nil
}

func (p *Postgres) EnsureSettings(ctx context.Context) (*models.Settings, error) {
	if _, err := p.pool.Exec(ctx, rebind(ensureSettingsSQL), models.SettingsID, models.DefaultAIModel, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("EnsureSettings: %w", err)
	}
	return p.GetSettings(ctx)
}

func (p *Postgres) UpdateSettings(ctx context.Context, st *models.Settings) error {
	st.UpdatedAt = time.Now().UTC()
	_, err := p.pool.Exec(ctx, rebind(upsertSettingsSQL), models.SettingsID,
		st.RadarrURL, st.RadarrAPIKey, st.SonarrURL, st.SonarrAPIKey,
		st.AIAPIKey, st.AIModel, st.PromptRules, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("UpdateSettings: %w", err)
	}
	return nil
}

func (p *Postgres) GetItem(ctx context.Context, id int64) (*models.MediaItem, error) {
	row := p.pool.QueryRow(ctx, rebind(`SELECT `+itemColumns+` FROM media_items WHERE id = ?`), id)
	item, err := scanPostgresItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetItem: %w", err)
	}
	return item, nil
}

func (p *Postgres) ListItemsByKind(ctx context.Context, kind models.Kind) ([]models.MediaItem, error) {
	return p.ListItems(ctx, ItemFilter{Kind: &kind})
}

func (p *Postgres) ListItems(ctx context.Context, filter ItemFilter) ([]models.MediaItem, error) {
	where, args := filter.where()
	rows, err := p.pool.Query(ctx, rebind(`SELECT `+itemColumns+` FROM media_items`+where+filter.orderBy()), args...)
	if err != nil {
		return nil, fmt.Errorf("ListItems: %w", err)
	}
	defer rows.Close()

	var items []models.MediaItem
	for rows.Next() {
		item, err := scanPostgresItem(rows)
		if err != nil {
			return nil, fmt.Errorf("ListItems scan: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (p *Postgres) CountItems(ctx context.Context, filter ItemFilter) (int, error) {
	where, args := filter.where()
	var n int
	if err := p.pool.QueryRow(ctx, rebind(`SELECT COUNT(1) FROM media_items`+where), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountItems: %w", err)
	}
	return n, nil
}

func (p *Postgres) SaveSyncBatch(ctx context.Context, batch SyncBatch) error {
	if batch.Empty() {
		return nil
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin sync tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	now := time.Now().UTC()
	insert := rebind(insertItemSQL)
	for _, item := range batch.Create {
		item.CreatedAt, item.UpdatedAt = now, now
		err := tx.QueryRow(ctx, insert,
			item.ExternalID, string(item.Kind), item.AltID, item.Title, item.Overview, item.CurrentPath,
			item.IsOrganized, item.Ignored, now, now,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert item %s/%d: %w", item.Kind, item.ExternalID, err)
		}
	}
	update := rebind(updateSyncedItemSQL)
	for _, item := range batch.Update {
		item.UpdatedAt = now
		if _, err := tx.Exec(ctx, update,
			item.Title, item.CurrentPath, item.Overview, item.IsOrganized, now, item.ID,
		); err != nil {
			return fmt.Errorf("update item %d: %w", item.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit sync tx: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateSuggestion(ctx context.Context, id int64, suggestedPath string, organized bool) error {
	tag, err := p.pool.Exec(ctx, rebind(updateSuggestionSQL), suggestedPath, organized, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("UpdateSuggestion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SetIgnored(ctx context.Context, id int64, ignored bool) error {
	tag, err := p.pool.Exec(ctx, rebind(setIgnoredSQL), ignored, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("SetIgnored: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPostgresItem(row rowScanner) (*models.MediaItem, error) {
	var item models.MediaItem
	var kind string
	if err := row.Scan(&item.ID, &item.ExternalID, &kind, &item.AltID, &item.Title, &item.Overview,
		&item.CurrentPath, &item.SuggestedPath, &item.IsOrganized, &item.Ignored, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Kind = models.Kind(kind)
	return &item, nil
}
