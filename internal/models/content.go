package models

import "time"

// Content is a study resource published by a mentor, either an uploaded PDF or an external link.
type Content struct {
	ID          string    `db:"id" json:"id"`
	MentorID    string    `db:"mentor_id" json:"mentor_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	Subject     string    `db:"subject" json:"subject"`
	Grade       int       `db:"grade" json:"grade"`
	FilePath    *string   `db:"file_path" json:"-"`
	FileSizeMB  *float64  `db:"file_size_mb" json:"file_size_mb,omitempty"`
	ExternalURL *string   `db:"external_url" json:"external_url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// HasFile reports whether the content is backed by an uploaded file.
func (c Content) HasFile() bool {
	return c.FilePath != nil && *c.FilePath != ""
}

// ContentDetail adds the publishing mentor and a short-lived download URL.
type ContentDetail struct {
	Content
	MentorName  string `db:"mentor_name" json:"mentor_name"`
	DownloadURL string `db:"-" json:"download_url,omitempty"`
}

// ContentFilter narrows content listings.
type ContentFilter struct {
	MentorID string
	Subject  string
	Grade    int
	Page     int
	PageSize int
}

// CreateContentRequest carries the metadata of an upload.
type CreateContentRequest struct {
	Title       string `form:"title" json:"title" validate:"required,max=200"`
	Description string `form:"description" json:"description" validate:"omitempty,max=2000"`
	Subject     string `form:"subject" json:"subject" validate:"required,max=100"`
	Grade       int    `form:"grade" json:"grade" validate:"required,oneof=10 11 12"`
	ExternalURL string `form:"external_url" json:"external_url" validate:"omitempty,url"`
}
