// Package store holds the optional Postgres run ledger. Box-score data itself lives in the
// CSV files managed by csvstore.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Database wraps the ledger connection pool.
type Database struct {
	conn *sql.DB
}

// NewDatabase opens a pool to dsn and verifies it with a ping.
func NewDatabase(ctx context.Context, dsn string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A run writes a handful of rows; keep the pool small.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{conn: db}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries
func (db *Database) DB() *sql.DB {
	return db.conn
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS scrape_sessions (
		session_id BIGSERIAL PRIMARY KEY,
		status VARCHAR(16) NOT NULL,
		dates TEXT[] NOT NULL DEFAULT '{}',
		divisions TEXT[] NOT NULL DEFAULT '{}',
		genders TEXT[] NOT NULL DEFAULT '{}',
		status_message TEXT,
		last_error TEXT,
		started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS scrape_session_events (
		event_id BIGSERIAL PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES scrape_sessions(session_id) ON DELETE CASCADE,
		event_type VARCHAR(32) NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scrape_session_events_session
		ON scrape_session_events(session_id, created_at)`,
}

// EnsureSchema creates the ledger tables if they are missing.
func (db *Database) EnsureSchema(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply ledger schema: %w", err)
		}
	}
	return tx.Commit()
}

// HealthCheck performs a health check on the database
func (db *Database) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}
