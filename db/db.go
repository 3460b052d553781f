package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// NewDB opens a Postgres connection and makes sure the schema exists
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	if connStr == "" {
		return nil, fmt.Errorf("database connection string is empty")
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scrape_runs (
			id UUID PRIMARY KEY,
			website VARCHAR(20) NOT NULL,
			company TEXT NOT NULL,
			range_start TIMESTAMPTZ NOT NULL,
			range_end TIMESTAMPTZ NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'created',
			pages_count INTEGER DEFAULT 0,
			reviews_count INTEGER DEFAULT 0,
			skipped_count INTEGER DEFAULT 0,
			stop_reason VARCHAR(32),
			last_error TEXT,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT valid_status CHECK (status IN ('created', 'in_progress', 'done', 'failed'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scrape_runs table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reviews (
			id SERIAL PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES scrape_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			company TEXT NOT NULL,
			source VARCHAR(20) NOT NULL,
			published_at TIMESTAMPTZ NOT NULL,
			rating TEXT,
			title TEXT,
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reviews table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_reviews_run_id ON reviews(run_id)`)
	if err != nil {
		return fmt.Errorf("failed to create reviews index: %w", err)
	}

	return nil
}

// copyReviewsStmt is the COPY statement used by SaveReviews
var copyReviewsStmt = pq.CopyIn("reviews", "run_id", "position", "company", "source", "published_at", "rating", "title", "body")
