package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"reportai/internal/errors"
)

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every step is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createReportsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create reports table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}

	return nil
}

func (r *MigrationRunner) createReportsTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS reports (
			id UUID PRIMARY KEY,
			name VARCHAR(200) NOT NULL,
			source_label VARCHAR(255) NOT NULL DEFAULT '',
			record_count INTEGER NOT NULL DEFAULT 0,
			field_count INTEGER NOT NULL DEFAULT 0,
			result JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`
	if isSQLite(db) {
		query = `
			CREATE TABLE IF NOT EXISTS reports (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				source_label TEXT NOT NULL DEFAULT '',
				record_count INTEGER NOT NULL DEFAULT 0,
				field_count INTEGER NOT NULL DEFAULT 0,
				result TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)
		`
	}
	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports (created_at DESC)`)
	return err
}

func isSQLite(db *sqlx.DB) bool {
	switch db.DriverName() {
	case "sqlite", "sqlite3":
		return true
	}
	return false
}
