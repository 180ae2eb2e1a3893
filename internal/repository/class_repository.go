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

// ClassRepository provides data access for live classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// Create inserts a class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classes (id, mentor_id, title, subject, topic, type, grade, starts_at, duration_minutes, link, created_at)
        VALUES (:id, :mentor_id, :title, :subject, :topic, :type, :grade, :starts_at, :duration_minutes, :link, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// List returns classes with mentor names ordered by start time.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	base := `FROM classes c JOIN users u ON u.id = c.mentor_id`
	var conditions []string
	var args []interface{}

	if filter.MentorID != "" {
		conditions = append(conditions, fmt.Sprintf("c.mentor_id = $%d", len(args)+1))
		args = append(args, filter.MentorID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(c.subject) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Grade > 0 {
		conditions = append(conditions, fmt.Sprintf("c.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.UpcomingFrom != nil {
		conditions = append(conditions, fmt.Sprintf("c.starts_at >= $%d", len(args)+1))
		args = append(args, *filter.UpcomingFrom)
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	size, offset := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT c.id, c.mentor_id, c.title, c.subject, c.topic, c.type, c.grade, c.starts_at, c.duration_minutes, c.link, c.created_at,
        u.full_name AS mentor_name %s ORDER BY c.starts_at ASC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// DeleteOwned removes a class hosted by mentorID and reports whether a row matched.
func (r *ClassRepository) DeleteOwned(ctx context.Context, id, mentorID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1 AND mentor_id = $2`, id, mentorID)
	if err != nil {
		return false, fmt.Errorf("delete class: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete class rows: %w", err)
	}
	return affected > 0, nil
}

// CountUpcoming returns how many classes start at or after from.
func (r *ClassRepository) CountUpcoming(ctx context.Context, from time.Time) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM classes WHERE starts_at >= $1`, from); err != nil {
		return 0, fmt.Errorf("count upcoming classes: %w", err)
	}
	return total, nil
}
