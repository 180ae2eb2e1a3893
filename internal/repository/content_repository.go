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

// ContentRepository persists mentor-published study content.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository constructs the repository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Create inserts a content row.
func (r *ContentRepository) Create(ctx context.Context, content *models.Content) error {
	if content.ID == "" {
		content.ID = uuid.NewString()
	}
	if content.CreatedAt.IsZero() {
		content.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO contents (id, mentor_id, title, description, subject, grade, file_path, file_size_mb, external_url, created_at)
        VALUES (:id, :mentor_id, :title, :description, :subject, :grade, :file_path, :file_size_mb, :external_url, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, content); err != nil {
		return fmt.Errorf("create content: %w", err)
	}
	return nil
}

// FindByID returns a content row.
func (r *ContentRepository) FindByID(ctx context.Context, id string) (*models.Content, error) {
	const query = `SELECT id, mentor_id, title, description, subject, grade, file_path, file_size_mb, external_url, created_at
        FROM contents WHERE id = $1`
	var content models.Content
	if err := r.db.GetContext(ctx, &content, query, id); err != nil {
		return nil, err
	}
	return &content, nil
}

// List returns content matching the filter, newest first.
func (r *ContentRepository) List(ctx context.Context, filter models.ContentFilter) ([]models.ContentDetail, int, error) {
	base := `FROM contents ct JOIN users u ON u.id = ct.mentor_id`
	var conditions []string
	var args []interface{}

	if filter.MentorID != "" {
		conditions = append(conditions, fmt.Sprintf("ct.mentor_id = $%d", len(args)+1))
		args = append(args, filter.MentorID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(ct.subject) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Grade > 0 {
		conditions = append(conditions, fmt.Sprintf("ct.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	size, offset := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT ct.id, ct.mentor_id, ct.title, ct.description, ct.subject, ct.grade, ct.file_path, ct.file_size_mb,
        ct.external_url, ct.created_at, u.full_name AS mentor_name %s ORDER BY ct.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var items []models.ContentDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list content: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count content: %w", err)
	}
	return items, total, nil
}

// SubjectsForGrade lists the distinct subjects that have content for grade.
func (r *ContentRepository) SubjectsForGrade(ctx context.Context, grade int) ([]string, error) {
	const query = `SELECT DISTINCT subject FROM contents WHERE grade = $1 ORDER BY subject ASC`
	var subjects []string
	if err := r.db.SelectContext(ctx, &subjects, query, grade); err != nil {
		return nil, fmt.Errorf("list content subjects: %w", err)
	}
	return subjects, nil
}

// Delete removes a content row.
func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	return nil
}
