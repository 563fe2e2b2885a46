// Package database opens the report store and brings its schema up to date.
package database

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"reportai/internal/config"
	"reportai/internal/errors"
	"reportai/internal/migration"
)

// Open connects to the configured database and runs migrations
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sqlx.DB, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}

	// A single connection keeps an in-memory sqlite database alive and
	// avoids SQLITE_BUSY between writers.
	if cfg.Driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs every schema migration against db
func Migrate(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		return err
	}
	logger.InfoContext(ctx, "database migrated",
		slog.String("driver", db.DriverName()),
		slog.String("version", runner.Version()))
	return nil
}
