package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/repository"
)

// dbhealth pings the configured database and reports the document count.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db, cfg.Database.Driver, logger); err != nil {
		logger.Error("running migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.HealthCheck(ctx, db, logger); err != nil {
		logger.Error("database health", "status", "FAIL", "error", err)
		os.Exit(1)
	}
	logger.Info("database health", "status", "OK")

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		logger.Error("counting documents", "error", err)
		os.Exit(1)
	}
	logger.Info("documents", "count", count, "driver", cfg.Database.Driver)
}
