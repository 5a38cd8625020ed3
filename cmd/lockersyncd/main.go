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

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	samedayadapter "github.com/smartystudio/lockersync/internal/adapter/driven/sameday"
	sqliteadapter "github.com/smartystudio/lockersync/internal/adapter/driven/sqlite"
	httphandler "github.com/smartystudio/lockersync/internal/adapter/driving/http"
	"github.com/smartystudio/lockersync/internal/application"
	"github.com/smartystudio/lockersync/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	schedule, err := application.ParseSchedule(cfg.SyncSchedule)
	if err != nil {
		return err
	}

	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"country_code", cfg.CountryCode,
		"sync_schedule", cfg.SyncSchedule,
		"provider", cfg.SamedayBaseURL,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	lockerStore := sqliteadapter.NewLockerRepo(db)
	courierClient := samedayadapter.NewClient(cfg.SamedayBaseURL, cfg.SamedayUsername, cfg.SamedayPassword)

	// 6. Create and start the sync service (seeds an empty directory, then
	// follows the weekly schedule and serves manual triggers).
	syncSvc := application.NewSyncService(courierClient, lockerStore, cfg.CountryCode, schedule)
	go syncSvc.Start(ctx)

	// 7. Create HTTP handler and register routes.
	handler := httphandler.NewHandler(lockerStore, syncSvc, slog.Default())
	mux := httphandler.NewServeMux(handler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("lockersyncd started",
		"listen_addr", cfg.ListenAddr,
		"country_code", cfg.CountryCode,
	)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
