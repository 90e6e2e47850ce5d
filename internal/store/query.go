package store

import (
	"strconv"
	"strings"
)

const itemColumns = `id, external_id, kind, alt_id, title, overview, current_path, suggested_path,
	is_organized, ignored, created_at, updated_at`

const settingsColumns = `radarr_url, radarr_api_key, sonarr_url, sonarr_api_key,
	ai_api_key, ai_model, prompt_rules, updated_at`

// where renders the filter as a WHERE clause with ? placeholders.
func (f ItemFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.Kind != nil {
		conds = append(conds, "kind = ?")
		args = append(args, string(*f.Kind))
	}
	if f.Organized != nil {
		conds = append(conds, "is_organized = ?")
		args = append(args, *f.Organized)
	}
	if f.Ignored != nil {
		conds = append(conds, "ignored = ?")
		args = append(args, *f.Ignored)
	}
	if f.UnsuggestedOnly {
		conds = append(conds, "suggested_path IS NULL")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (f ItemFilter) orderBy() string {
	col := "title"
	switch f.Sort {
	case SortPath:
		col = "current_path"
	case SortSuggested:
		col = "suggested_path"
	}
	dir, nulls := "ASC", " NULLS FIRST"
	if f.Desc {
		dir, nulls = "DESC", " NULLS LAST"
	}
	// Only suggested_path is nullable. SQLite and Postgres disagree on the
	// default NULL placement, so it is spelled out.
	if col != "suggested_path" {
		nulls = ""
	}
	return " ORDER BY " + col + " " + dir + nulls + ", id " + dir
}

// rebind converts ? placeholders to $1, $2, ... for Postgres.
func rebind(q string) string {
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// Shared statements, written with ? placeholders.
const (
	insertItemSQL = `INSERT INTO media_items
		(external_id, kind, alt_id, title, overview, current_path, suggested_path, is_organized, ignored, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, ?)
		ON CONFLICT (external_id, kind) DO UPDATE SET
		  title = excluded.title,
		  current_path = excluded.current_path,
		  overview = excluded.overview,
		  is_organized = (media_items.suggested_path IS NOT NULL AND media_items.suggested_path = excluded.current_path),
		  updated_at = excluded.updated_at
		RETURNING id`

	updateSyncedItemSQL = `UPDATE media_items
		SET title = ?, current_path = ?, overview = ?, is_organized = ?, updated_at = ?
		WHERE id = ?`

	updateSuggestionSQL = `UPDATE media_items
		SET suggested_path = ?, is_organized = ?, updated_at = ?
		WHERE id = ?`

	setIgnoredSQL = `UPDATE media_items SET ignored = ?, updated_at = ? WHERE id = ?`

	ensureSettingsSQL = `INSERT INTO settings (id, ai_model, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING`

	upsertSettingsSQL = `INSERT INTO settings (id, ` + settingsColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		  radarr_url = excluded.radarr_url,
		  radarr_api_key = excluded.radarr_api_key,
		  sonarr_url = excluded.sonarr_url,
		  sonarr_api_key = excluded.sonarr_api_key,
		  ai_api_key = excluded.ai_api_key,
		  ai_model = excluded.ai_model,
		  prompt_rules = excluded.prompt_rules,
		  updated_at = excluded.updated_at`
)
