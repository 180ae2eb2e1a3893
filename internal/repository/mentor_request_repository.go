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

// MentorRequestRepository persists student requests for mentor help.
type MentorRequestRepository struct {
	db *sqlx.DB
}

// NewMentorRequestRepository constructs the repository.
func NewMentorRequestRepository(db *sqlx.DB) *MentorRequestRepository {
	return &MentorRequestRepository{db: db}
}

// Create inserts a new request in pending status.
func (r *MentorRequestRepository) Create(ctx context.Context, req *models.MentorRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.Status == "" {
		req.Status = models.MentorRequestPending
	}
	const query = `INSERT INTO mentor_requests (id, student_id, mentor_id, topic, message, request_type, attachment_path, status, created_at, updated_at)
        VALUES (:id, :student_id, :mentor_id, :topic, :message, :request_type, :attachment_path, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create mentor request: %w", err)
	}
	return nil
}

// FindByID returns a request by identifier.
func (r *MentorRequestRepository) FindByID(ctx context.Context, id string) (*models.MentorRequest, error) {
	const query = `SELECT id, student_id, mentor_id, topic, message, request_type, attachment_path, status, created_at, updated_at
        FROM mentor_requests WHERE id = $1`
	var req models.MentorRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests with student and mentor names, newest first.
func (r *MentorRequestRepository) List(ctx context.Context, filter models.MentorRequestFilter) ([]models.MentorRequestDetail, int, error) {
	base := `FROM mentor_requests mr
JOIN students s ON s.id = mr.student_id
JOIN users m ON m.id = mr.mentor_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("mr.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.MentorID != "" {
		conditions = append(conditions, fmt.Sprintf("mr.mentor_id = $%d", len(args)+1))
		args = append(args, filter.MentorID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("mr.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	size, offset := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT mr.id, mr.student_id, mr.mentor_id, mr.topic, mr.message, mr.request_type, mr.attachment_path,
        mr.status, mr.created_at, mr.updated_at,
        s.first_name || ' ' || s.surname AS student_name, m.full_name AS mentor_name
        %s ORDER BY mr.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var items []models.MentorRequestDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list mentor requests: %w", err)
	}
	for i := range items {
		items[i].HasFile = items[i].AttachmentPath != nil && *items[i].AttachmentPath != ""
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count mentor requests: %w", err)
	}
	return items, total, nil
}

// UpdateStatus changes the status of a request and reports whether a row matched.
func (r *MentorRequestRepository) UpdateStatus(ctx context.Context, id string, status models.MentorRequestStatus) (bool, error) {
	const query = `UPDATE mentor_requests SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update mentor request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update mentor request status rows: %w", err)
	}
	return affected > 0, nil
}

// Stats counts requests per status.
func (r *MentorRequestRepository) Stats(ctx context.Context) (*models.MentorRequestStats, error) {
	const query = `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'pending') AS pending,
        COUNT(*) FILTER (WHERE status = 'in-progress') AS in_progress,
        COUNT(*) FILTER (WHERE status = 'completed') AS completed
        FROM mentor_requests`
	var stats models.MentorRequestStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("mentor request stats: %w", err)
	}
	return &stats, nil
}
