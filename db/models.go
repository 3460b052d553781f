package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"review-scraper/models"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a scrape run
type RunStatus string

const (
	StatusCreated    RunStatus = "created"
	StatusInProgress RunStatus = "in_progress"
	StatusDone       RunStatus = "done"
	StatusFailed     RunStatus = "failed"
)

// Valid reports whether s is one of the known statuses
func (s RunStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusInProgress, StatusDone, StatusFailed:
		return true
	}
	return false
}

// Run represents one scraper invocation
type Run struct {
	ID           uuid.UUID
	Website      string
	Company      string
	RangeStart   time.Time
	RangeEnd     time.Time
	Status       RunStatus
	PagesCount   int
	ReviewsCount int
	SkippedCount int
	StopReason   sql.NullString
	LastError    sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RunCounts are the totals recorded when a run finishes
type RunCounts struct {
	Pages      int
	Reviews    int
	Skipped    int
	StopReason string
}

// CreateRun inserts a run with status 'created'
func (db *DB) CreateRun(ctx context.Context, id uuid.UUID, website, company string, start, end time.Time) (*Run, error) {
	run := &Run{
		ID:         id,
		Website:    website,
		Company:    company,
		RangeStart: start,
		RangeEnd:   end,
		Status:     StatusCreated,
	}
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO scrape_runs (id, website, company, range_start, range_end, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, id, website, company, start, end, string(StatusCreated)).Scan(&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// UpdateRunStatus updates the status of a run
func (db *DB) UpdateRunStatus(ctx context.Context, id uuid.UUID, status RunStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid run status %q", status)
	}
	_, err := db.conn.ExecContext(ctx, `
		UPDATE scrape_runs
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`, string(status), id)
	return err
}

// FinishRun marks a run done with its counts
func (db *DB) FinishRun(ctx context.Context, id uuid.UUID, counts RunCounts) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE scrape_runs
		SET status = $1, pages_count = $2, reviews_count = $3, skipped_count = $4, stop_reason = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $6
	`, string(StatusDone), counts.Pages, counts.Reviews, counts.Skipped, counts.StopReason, id)
	return err
}

// FailRun marks a run failed and stores the error message
func (db *DB) FailRun(ctx context.Context, id uuid.UUID, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := db.conn.ExecContext(ctx, `
		UPDATE scrape_runs
		SET status = $1, last_error = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`, string(StatusFailed), msg, id)
	return err
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var run Run
	var status string
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, website, company, range_start, range_end, status, pages_count, reviews_count,
			skipped_count, stop_reason, last_error, created_at, updated_at
		FROM scrape_runs
		WHERE id = $1
	`, id).Scan(
		&run.ID, &run.Website, &run.Company, &run.RangeStart, &run.RangeEnd, &status,
		&run.PagesCount, &run.ReviewsCount, &run.SkippedCount, &run.StopReason, &run.LastError,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	return &run, nil
}

// SaveReviews stores the reviews of a run in a single transaction
func (db *DB) SaveReviews(ctx context.Context, runID uuid.UUID, reviews []models.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, copyReviewsStmt)
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}

	for i, r := range reviews {
		if _, err := stmt.ExecContext(ctx, reviewArgs(runID, i, r)...); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy review %d: %w", i, err)
		}
	}

	// flush buffered rows
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush reviews: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close copy: %w", err)
	}

	return tx.Commit()
}

// reviewArgs lays out one review in copyReviewsStmt column order
func reviewArgs(runID uuid.UUID, position int, r models.Review) []interface{} {
	return []interface{}{
		runID.String(),
		position,
		r.Company,
		string(r.Source),
		r.PublishedAt.UTC(),
		nullString(r.Rating),
		nullString(r.Title),
		r.Body,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
