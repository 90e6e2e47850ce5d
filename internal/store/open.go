package store

import (
	"context"
	"fmt"
)

// Open migrates and opens the backend selected by driver ("postgres" or "sqlite").
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	if err := RunMigrations(driver, databaseURL); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	switch driver {
	case "postgres":
		pg, err := NewPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case "sqlite":
		db, err := NewSQLite(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("unsupported driver %q", driver)
}
