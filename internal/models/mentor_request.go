package models

import "time"

// MentorRequestStatus tracks a request through the mentor queue.
type MentorRequestStatus string

const (
	MentorRequestPending    MentorRequestStatus = "pending"
	MentorRequestInProgress MentorRequestStatus = "in-progress"
	MentorRequestCompleted  MentorRequestStatus = "completed"
)

// Valid reports whether s is a known status.
func (s MentorRequestStatus) Valid() bool {
	switch s {
	case MentorRequestPending, MentorRequestInProgress, MentorRequestCompleted:
		return true
	}
	return false
}

// MentorRequest is a student's ask for help from a specific mentor.
type MentorRequest struct {
	ID             string              `db:"id" json:"id"`
	StudentID      string              `db:"student_id" json:"student_id"`
	MentorID       string              `db:"mentor_id" json:"mentor_id"`
	Topic          string              `db:"topic" json:"topic"`
	Message        string              `db:"message" json:"message"`
	RequestType    string              `db:"request_type" json:"request_type"`
	AttachmentPath *string             `db:"attachment_path" json:"-"`
	Status         MentorRequestStatus `db:"status" json:"status"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// MentorRequestDetail joins student and mentor names onto a request.
type MentorRequestDetail struct {
	MentorRequest
	StudentName string `db:"student_name" json:"student_name"`
	MentorName  string `db:"mentor_name" json:"mentor_name"`
	HasFile     bool   `db:"-" json:"has_attachment"`
}

// MentorRequestFilter narrows request listings.
type MentorRequestFilter struct {
	StudentID string
	MentorID  string
	Status    MentorRequestStatus
	Page      int
	PageSize  int
}

// CreateMentorRequest is submitted by students.
type CreateMentorRequest struct {
	MentorID    string `form:"mentor_id" json:"mentor_id" validate:"required"`
	Topic       string `form:"topic" json:"topic" validate:"required,max=200"`
	Message     string `form:"message" json:"message" validate:"required,max=5000"`
	RequestType string `form:"request_type" json:"request_type" validate:"required,max=50"`
}

// UpdateMentorRequestStatus changes the status of a request.
type UpdateMentorRequestStatus struct {
	Status MentorRequestStatus `json:"status" validate:"required"`
}

// MentorRequestStats counts requests per status.
type MentorRequestStats struct {
	Total      int `db:"total" json:"total"`
	Pending    int `db:"pending" json:"pending"`
	InProgress int `db:"in_progress" json:"in_progress"`
	Completed  int `db:"completed" json:"completed"`
}
