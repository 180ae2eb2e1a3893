package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduboost-api/internal/models"
)

// StudentRepository handles persistence of student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a student profile. The ID must already reference a users row.
func (r *StudentRepository) Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	if student.ID == "" {
		return fmt.Errorf("create student: user id is required")
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (id, id_number, first_name, surname, grade, birth_date, created_at)
        VALUES (:id, :id_number, :first_name, :surname, :grade, :birth_date, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// IDNumberExists reports whether a student already registered with idNumber.
func (r *StudentRepository) IDNumberExists(ctx context.Context, idNumber string) (bool, error) {
	const query = `SELECT 1 FROM students WHERE id_number = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, idNumber); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student id number: %w", err)
	}
	return true, nil
}

// FindByID returns a student by its user id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.id_number, s.first_name, s.surname, s.grade, s.birth_date, s.created_at,
        u.email, u.phone, u.active
        FROM students s
        JOIN users u ON u.id = s.id
        WHERE s.id = $1`
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdateProfile changes a student's name, grade and phone. The students row and the
// owning users row are updated together. It returns sql.ErrNoRows for an unknown id.
func (r *StudentRepository) UpdateProfile(ctx context.Context, id string, req models.UpdateStudentProfileRequest, at time.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin profile tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const studentQuery = `UPDATE students SET first_name = $2, surname = $3, grade = $4 WHERE id = $1`
	res, err := tx.ExecContext(ctx, studentQuery, id, req.FirstName, req.Surname, req.Grade)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	var phone *string
	if req.Phone != "" {
		phone = &req.Phone
	}
	const userQuery = `UPDATE users SET full_name = $2, phone = $3, updated_at = $4 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, userQuery, id, models.Student{FirstName: req.FirstName, Surname: req.Surname}.FullName(), phone, at); err != nil {
		return fmt.Errorf("update student account: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit profile tx: %w", err)
	}
	return nil
}

// List returns students matching the filter with total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := `FROM students s JOIN users u ON u.id = s.id`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name) LIKE $%d OR LOWER(s.surname) LIKE $%d OR s.id_number LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Grade > 0 {
		conditions = append(conditions, fmt.Sprintf("s.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("u.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"first_name": "s.first_name",
		"surname":    "s.surname",
		"grade":      "s.grade",
		"created_at": "s.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	size, offset := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT s.id, s.id_number, s.first_name, s.surname, s.grade, s.birth_date, s.created_at,
        u.email, u.phone, u.active %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}
