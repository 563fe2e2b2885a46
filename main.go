package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"reportai/adapters/postgres"
	"reportai/app"
	"reportai/internal/api"
	"reportai/internal/config"
	"reportai/internal/database"
	"reportai/internal/logging"
	"reportai/ui"
)

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logging", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	if envErr != nil {
		logger.Debug("no .env file found, using system environment variables")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.String("error", err.Error()))
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	reports := app.NewReportService(postgres.NewReportRepository(db), logger)
	apiHandler := api.NewHandler(reports, logger, cfg.Server.MaxUploadBytes())

	dashboard, err := ui.NewServer(reports, apiHandler.Router(), logger, cfg.Server.GinMode, cfg.Server.MaxUploadBytes())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           dashboard.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting ReportAI server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
