package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduboost-api/internal/models"
)

const enrollmentColumns = `e.id, e.student_id, e.enrollment_days, e.days_remaining, e.status, e.enrollment_date, e.last_updated`

// EnrollmentRepository handles persistence of the enrollment ledger.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = now
	}
	if enrollment.LastUpdated.IsZero() {
		enrollment.LastUpdated = now
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	const query = `INSERT INTO enrollments (id, student_id, enrollment_days, days_remaining, status, enrollment_date, last_updated)
        VALUES (:id, :student_id, :enrollment_days, :days_remaining, :status, :enrollment_date, :last_updated)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CurrentForStudent returns the most recent enrollment of a student.
func (r *EnrollmentRepository) CurrentForStudent(ctx context.Context, studentID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.student_id = $1
        ORDER BY e.enrollment_date DESC, e.id DESC LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
JOIN students s ON s.id = e.student_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"enrollment_date": "e.enrollment_date",
		"days_remaining":  "e.days_remaining",
		"last_updated":    "e.last_updated",
		"student_name":    "s.first_name",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "enrollment_date"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "e.enrollment_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	size, offset := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s,
        s.first_name || ' ' || s.surname AS student_name, s.id_number AS student_id_number, s.grade
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, enrollmentColumns, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// TopUp adds days to both counters and reactivates the enrollment in a single statement.
// It returns the updated row, or sql.ErrNoRows when the enrollment does not exist.
func (r *EnrollmentRepository) TopUp(ctx context.Context, id string, days int, at time.Time) (*models.Enrollment, error) {
	const query = `UPDATE enrollments e
        SET enrollment_days = e.enrollment_days + $2,
            days_remaining = e.days_remaining + $2,
            status = $3,
            last_updated = $4
        WHERE e.id = $1
        RETURNING ` + enrollmentColumns
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id, days, models.EnrollmentStatusActive, at); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CountUsable returns the number of enrollments that currently grant access.
func (r *EnrollmentRepository) CountUsable(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE status = $1 AND days_remaining > 0`
	var total int
	if err := r.db.GetContext(ctx, &total, query, models.EnrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count usable enrollments: %w", err)
	}
	return total, nil
}
