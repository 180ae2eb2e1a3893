package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduboost-api/internal/models"
)

// The decrement runs before the expiry in the same transaction, so a record
// at 1 day reaches 0 and is expired by the same sweep. A record already at 0
// is never decremented and is expired as it stands.
const (
	sweepMarkerQuery    = `INSERT INTO enrollment_sweeps (sweep_date, reduced, expired, ran_at) VALUES ($1, 0, 0, $2) ON CONFLICT (sweep_date) DO NOTHING`
	sweepDecrementQuery = `UPDATE enrollments SET days_remaining = days_remaining - 1 WHERE status = $1 AND days_remaining > 0`
	sweepExpireQuery    = `UPDATE enrollments SET status = $1 WHERE status = $2 AND days_remaining <= 0`
	sweepRecordQuery    = `UPDATE enrollment_sweeps SET reduced = $2, expired = $3 WHERE sweep_date = $1`
)

// SweepRepository applies the daily enrollment decrement and records per-day markers.
type SweepRepository struct {
	db *sqlx.DB
}

// NewSweepRepository constructs the repository.
func NewSweepRepository(db *sqlx.DB) *SweepRepository {
	return &SweepRepository{db: db}
}

// Apply runs the sweep for day in one transaction. The marker insert, decrement, expiry and
// count update commit together or not at all. When the day already has a marker nothing
// changes and the result is marked skipped.
func (r *SweepRepository) Apply(ctx context.Context, day time.Time) (result *models.SweepResult, err error) {
	day = truncateDay(day)
	result = &models.SweepResult{SweepDate: day}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sweep tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, sweepMarkerQuery, day, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("insert sweep marker: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sweep marker rows: %w", err)
	}
	if inserted == 0 {
		if err = tx.Rollback(); err != nil {
			return nil, fmt.Errorf("release sweep tx: %w", err)
		}
		result.Skipped = true
		return result, nil
	}

	res, err = tx.ExecContext(ctx, sweepDecrementQuery, models.EnrollmentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("decrement enrollments: %w", err)
	}
	if result.Reduced, err = res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("decrement rows: %w", err)
	}

	res, err = tx.ExecContext(ctx, sweepExpireQuery, models.EnrollmentStatusExpired, models.EnrollmentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("expire enrollments: %w", err)
	}
	if result.Expired, err = res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("expire rows: %w", err)
	}

	if _, err = tx.ExecContext(ctx, sweepRecordQuery, day, result.Reduced, result.Expired); err != nil {
		return nil, fmt.Errorf("record sweep counts: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sweep tx: %w", err)
	}
	return result, nil
}

// ListRecent returns the latest sweep markers, newest first.
func (r *SweepRepository) ListRecent(ctx context.Context, limit int) ([]models.SweepRun, error) {
	if limit <= 0 || limit > 366 {
		limit = 30
	}
	const query = `SELECT sweep_date, reduced, expired, ran_at FROM enrollment_sweeps ORDER BY sweep_date DESC LIMIT $1`
	var runs []models.SweepRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list sweep runs: %w", err)
	}
	return runs, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
