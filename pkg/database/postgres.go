package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/pdf-page-api/pkg/config"
)

// Schema creates the metadata table. Statements are idempotent.
const Schema = `CREATE TABLE IF NOT EXISTS pdf_metadata (
	filename           TEXT PRIMARY KEY,
	page_count         INTEGER NOT NULL DEFAULT 0,
	size               BIGINT NOT NULL DEFAULT 0,
	last_accessed      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_accessed_page INTEGER NOT NULL DEFAULT 0,
	last_accessed_ip   TEXT NOT NULL DEFAULT '',
	access_log         JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_pdf_metadata_last_accessed ON pdf_metadata (last_accessed DESC);`

// Open returns a configured PostgreSQL handle without dialing. Use Connect to verify it.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	return db, nil
}

// Connect pings the database within timeout.
func Connect(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Init connects and migrates. It is the metadata store's startup task.
func Init(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	if err := Connect(ctx, db, timeout); err != nil {
		return err
	}
	return Migrate(ctx, db)
}
