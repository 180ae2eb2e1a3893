package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduboost-api/internal/models"
)

var sweepDay = time.Date(2024, time.June, 15, 0, 0, 3, 0, time.UTC)

func exactSQL(query string) string {
	return "^" + regexp.QuoteMeta(query) + "$"
}

var (
	markerSQL    = exactSQL("INSERT INTO enrollment_sweeps (sweep_date, reduced, expired, ran_at) VALUES ($1, 0, 0, $2) ON CONFLICT (sweep_date) DO NOTHING")
	decrementSQL = exactSQL("UPDATE enrollments SET days_remaining = days_remaining - 1 WHERE status = $1 AND days_remaining > 0")
	expireSQL    = exactSQL("UPDATE enrollments SET status = $1 WHERE status = $2 AND days_remaining <= 0")
	recordSQL    = exactSQL("UPDATE enrollment_sweeps SET reduced = $2, expired = $3 WHERE sweep_date = $1")
)

func TestSweepRepositoryApply(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSweepRepository(db)

	day := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(markerSQL).
		WithArgs(day, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(decrementSQL).
		WithArgs(models.EnrollmentStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(expireSQL).
		WithArgs(models.EnrollmentStatusExpired, models.EnrollmentStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(recordSQL).
		WithArgs(day, int64(5), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Apply(context.Background(), sweepDay)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, int64(5), result.Reduced)
	assert.Equal(t, int64(2), result.Expired)
	assert.Equal(t, day, result.SweepDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A record at 1 day is both decremented and expired by one sweep, and a record
// already at 0 is only expired. The decrement must therefore guard on
// days_remaining > 0 and run before an expiry that matches days_remaining <= 0.
func TestSweepRepositoryApplyDecrementsBeforeExpiring(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSweepRepository(db)
	mock.MatchExpectationsInOrder(true)

	day := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(markerSQL).WithArgs(day, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	// one record moves 1 -> 0, the record at 0 is left alone
	mock.ExpectExec(decrementSQL).WithArgs(models.EnrollmentStatusActive).WillReturnResult(sqlmock.NewResult(0, 1))
	// both the fresh 0 and the stale 0 expire
	mock.ExpectExec(expireSQL).
		WithArgs(models.EnrollmentStatusExpired, models.EnrollmentStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(recordSQL).WithArgs(day, int64(1), int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Apply(context.Background(), sweepDay)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Reduced)
	assert.Equal(t, int64(2), result.Expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepStatementsGuardDayBoundaries(t *testing.T) {
	assert.Regexp(t, decrementSQL, sweepDecrementQuery)
	assert.Regexp(t, expireSQL, sweepExpireQuery)
	assert.Contains(t, sweepDecrementQuery, "days_remaining > 0")
	assert.Contains(t, sweepExpireQuery, "days_remaining <= 0")
}

func TestSweepRepositoryApplySkipsSweptDay(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSweepRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(markerSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	result, err := repo.Apply(context.Background(), sweepDay)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Zero(t, result.Reduced)
	assert.Zero(t, result.Expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepRepositoryApplyRollsBackOnExpireFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSweepRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(markerSQL).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(decrementSQL).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(expireSQL).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	result, err := repo.Apply(context.Background(), sweepDay)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "expire enrollments")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepRepositoryApplyRollsBackOnCommitFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSweepRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(markerSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(decrementSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(expireSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(recordSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	_, err := repo.Apply(context.Background(), sweepDay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit sweep tx")
}

func TestSweepRepositoryApplyUsesLocalCalendarDay(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSweepRepository(db)

	loc := time.FixedZone("SAST", 2*60*60)
	local := time.Date(2024, time.June, 16, 0, 0, 0, 0, loc)

	mock.ExpectBegin()
	mock.ExpectExec(markerSQL).
		WithArgs(time.Date(2024, time.June, 16, 0, 0, 0, 0, time.UTC), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	result, err := repo.Apply(context.Background(), local)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepRepositoryListRecent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSweepRepository(db)

	rows := sqlmock.NewRows([]string{"sweep_date", "reduced", "expired", "ran_at"}).
		AddRow(time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), 5, 2, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollment_sweeps ORDER BY sweep_date DESC LIMIT $1")).
		WithArgs(30).
		WillReturnRows(rows)

	runs, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(5), runs[0].Reduced)
}
