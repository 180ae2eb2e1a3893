package models

import "time"

// ClassType distinguishes how a live class is delivered.
type ClassType string

const (
	ClassTypeLive     ClassType = "live"
	ClassTypeRevision ClassType = "revision"
	ClassTypeWorkshop ClassType = "workshop"
)

// Class is a scheduled live session hosted by a mentor.
type Class struct {
	ID              string    `db:"id" json:"id"`
	MentorID        string    `db:"mentor_id" json:"mentor_id"`
	Title           string    `db:"title" json:"title"`
	Subject         string    `db:"subject" json:"subject"`
	Topic           string    `db:"topic" json:"topic"`
	Type            ClassType `db:"type" json:"type"`
	Grade           int       `db:"grade" json:"grade"`
	StartsAt        time.Time `db:"starts_at" json:"starts_at"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Link            string    `db:"link" json:"link"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ClassDetail extends Class with the hosting mentor's name.
type ClassDetail struct {
	Class
	MentorName string `db:"mentor_name" json:"mentor_name"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	MentorID     string
	Subject      string
	Grade        int
	UpcomingFrom *time.Time
	Page         int
	PageSize     int
}

// CreateClassRequest is submitted by mentors to schedule a class.
type CreateClassRequest struct {
	Title           string    `json:"title" validate:"required,max=200"`
	Subject         string    `json:"subject" validate:"required,max=100"`
	Topic           string    `json:"topic" validate:"omitempty,max=200"`
	Type            ClassType `json:"type" validate:"omitempty,oneof=live revision workshop"`
	Grade           int       `json:"grade" validate:"required,oneof=10 11 12"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0,lte=480"`
	Link            string    `json:"link" validate:"required,url"`
}
