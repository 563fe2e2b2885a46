package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"reportai/adapters/postgres"
	"reportai/app"
	"reportai/internal/config"
	"reportai/internal/database"
	"reportai/internal/ingest"
	"reportai/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: import <spreadsheet_dir>")
		os.Exit(2)
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	stats, err := importDir(ctx, db, os.Args[1], logger)
	if err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("import complete", slog.Int("imported", stats.Imported), slog.Int("skipped", stats.Skipped))
}

// Limits enforced by app.AnalyzeRequest validation.
const (
	maxNameLength   = 200
	maxSourceLength = 255
)

type importStats struct {
	Imported int
	Skipped  int
}

// importDir analyzes every supported spreadsheet under dir and saves one
// report per file. Files that cannot be read are skipped.
func importDir(ctx context.Context, db *sqlx.DB, dir string, logger *slog.Logger) (importStats, error) {
	var stats importStats

	files, err := findSpreadsheets(dir)
	if err != nil {
		return stats, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	logger.Info("found spreadsheets to import", slog.Int("files", len(files)), slog.String("dir", dir))

	reqs := make([]app.AnalyzeRequest, 0, len(files))
	for _, file := range files {
		ds, err := ingest.ReadFile(file)
		if err != nil {
			logger.Warn("skipping unreadable file", slog.String("file", file), slog.String("error", err.Error()))
			stats.Skipped++
			continue
		}
		base := filepath.Base(file)
		reqs = append(reqs, app.AnalyzeRequest{
			Name:        truncate(strings.TrimSuffix(base, filepath.Ext(base)), maxNameLength),
			SourceLabel: truncate(base, maxSourceLength),
			Dataset:     ds,
			Persist:     true,
		})
	}

	svc := app.NewReportService(postgres.NewReportRepository(db), logger)
	reports, err := svc.AnalyzeBatch(ctx, reqs)
	if err != nil {
		return stats, err
	}
	stats.Imported = len(reports)
	return stats, nil
}

func findSpreadsheets(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := ingest.DetectFormat(path); err == nil {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// truncate cuts s to at most n characters
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
