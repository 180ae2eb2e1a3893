package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduboost-api/internal/models"
)

func TestStudentRepositoryCreateRequiresUserID(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	err := repo.Create(context.Background(), nil, &models.Student{IDNumber: "0406015800088"})
	assert.Error(t, err)
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs("u1", "0406015800088", "Thandi", "Mokoena", 11, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), nil, &models.Student{
		ID:        "u1",
		IDNumber:  "0406015800088",
		FirstName: "Thandi",
		Surname:   "Mokoena",
		Grade:     11,
		BirthDate: time.Date(2004, time.June, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryIDNumberExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE id_number = $1")).
		WithArgs("0406015800088").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.IDNumberExists(context.Background(), "0406015800088")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "id_number", "first_name", "surname", "grade", "birth_date", "created_at", "email", "phone", "active"}).
		AddRow("u1", "0406015800088", "Thandi", "Mokoena", 11, now, now, "t@example.com", nil, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM students s JOIN users u ON u.id = s.id WHERE s.grade = $1 ORDER BY s.created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(11).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s JOIN users u ON u.id = s.id WHERE s.grade = $1")).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Grade: 11})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Thandi Mokoena", students[0].FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateProfile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	at := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET first_name = $2, surname = $3, grade = $4 WHERE id = $1")).
		WithArgs("stu-1", "Thandi", "Dlamini", 12).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET full_name = $2, phone = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("stu-1", "Thandi Dlamini", "0821234567", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateProfile(context.Background(), "stu-1", models.UpdateStudentProfileRequest{
		FirstName: "Thandi",
		Surname:   "Dlamini",
		Phone:     "0821234567",
		Grade:     12,
	}, at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateProfileUnknownStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateProfile(context.Background(), "ghost", models.UpdateStudentProfileRequest{FirstName: "A", Surname: "B", Grade: 10}, time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
