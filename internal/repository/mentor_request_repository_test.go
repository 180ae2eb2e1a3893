package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduboost-api/internal/models"
)

func TestMentorRequestRepositoryCreatePending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMentorRequestRepository(db)

	mock.ExpectExec("INSERT INTO mentor_requests").WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.MentorRequest{StudentID: "stu-1", MentorID: "m-1", Topic: "Algebra", Message: "Help", RequestType: "homework"}
	require.NoError(t, repo.Create(context.Background(), req))
	assert.Equal(t, models.MentorRequestPending, req.Status)
	assert.NotEmpty(t, req.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMentorRequestRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMentorRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE mentor_requests SET status = $2")).
		WithArgs("req-1", models.MentorRequestInProgress, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE mentor_requests SET status = $2")).
		WithArgs("req-x", models.MentorRequestCompleted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatus(context.Background(), "req-1", models.MentorRequestInProgress)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(context.Background(), "req-x", models.MentorRequestCompleted)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMentorRequestRepositoryListMarksAttachments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMentorRequestRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "mentor_id", "topic", "message", "request_type", "attachment_path", "status", "created_at", "updated_at", "student_name", "mentor_name"}).
		AddRow("req-1", "stu-1", "m-1", "Algebra", "Help", "homework", "requests/a.pdf", models.MentorRequestPending, now, now, "Thandi Mokoena", "Mr M").
		AddRow("req-2", "stu-1", "m-1", "Geometry", "Help", "exam", nil, models.MentorRequestCompleted, now, now, "Thandi Mokoena", "Mr M")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE mr.student_id = $1 ORDER BY mr.created_at DESC")).
		WithArgs("stu-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM mentor_requests mr")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	items, total, err := repo.List(context.Background(), models.MentorRequestFilter{StudentID: "stu-1"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, total)
	assert.True(t, items[0].HasFile)
	assert.False(t, items[1].HasFile)
}

func TestMentorRequestRepositoryStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMentorRequestRepository(db)

	mock.ExpectQuery("COUNT\\(\\*\\) FILTER").
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "in_progress", "completed"}).AddRow(6, 3, 2, 1))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.MentorRequestStats{Total: 6, Pending: 3, InProgress: 2, Completed: 1}, *stats)
}
