package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations
var migrationsFS embed.FS

// CheckPostgres opens a short-lived connection to verify the DSN is reachable
// before migrations run, so connection problems surface with a clear message.
func CheckPostgres(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// RunMigrations applies the embedded migrations for driver ("postgres" or "sqlite").
func RunMigrations(driver, databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	var m *migrate.Migrate
	switch driver {
	case "postgres":
		if err := CheckPostgres(databaseURL); err != nil {
			return err
		}
		m, err = migrate.NewWithSourceInstance("iofs", src, databaseURL)
		if err != nil {
			return fmt.Errorf("migrate.New: %w", err)
		}
	case "sqlite":
		// The migrate driver closes its *sql.DB, so it gets its own handle.
		db, err := sql.Open("sqlite", sqliteDSN(databaseURL))
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		drv, err := sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("sqlite migrate driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite", drv)
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("migrate.New: %w", err)
		}
	default:
		return fmt.Errorf("migrations: unsupported driver %q", driver)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate.Up: %w", err)
	}
	return nil
}
