package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
)

// Open connects to the configured database. The default is a local SQLite
// file, matching the original deployment; Postgres is selected with
// DB_DRIVER=postgres and a pgx DSN.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var driverName string
	switch cfg.Driver {
	case "sqlite":
		driverName = "sqlite"
	case "postgres":
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	logger.Info("connecting to database", "driver", cfg.Driver)
	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, err
	}

	// Zero-valued pool settings would let idle connections close, which
	// destroys a shared-cache in-memory SQLite database between queries.
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		_ = db.Close()
		return nil, err
	}

	logger.Info("successfully connected to database")
	return db, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	vendor     TEXT NOT NULL DEFAULT '',
	data       TEXT NOT NULL DEFAULT '',
	amount     REAL NOT NULL DEFAULT 0,
	category   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_vendor_category ON documents (vendor, category);
CREATE INDEX IF NOT EXISTS idx_documents_amount ON documents (amount);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id         BIGSERIAL PRIMARY KEY,
	vendor     TEXT NOT NULL DEFAULT '',
	data       TEXT NOT NULL DEFAULT '',
	amount     NUMERIC(12,2) NOT NULL DEFAULT 0,
	category   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_vendor_category ON documents (vendor, category);
CREATE INDEX IF NOT EXISTS idx_documents_amount ON documents (amount);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);
`

// Migrate creates the documents table and its indexes when missing.
func Migrate(ctx context.Context, db *sql.DB, driver string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	schema := sqliteSchema
	if driver == "postgres" {
		schema = postgresSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		logger.Error("migration failed", "error", err)
		return common.WrapError(err, "migrate documents table")
	}
	logger.Info("database schema up to date")
	return nil
}

// HealthCheck pings the database to catch DSN and connectivity issues early.
func HealthCheck(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging database")
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
