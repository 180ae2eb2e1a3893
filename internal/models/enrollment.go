package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive  EnrollmentStatus = "active"
	EnrollmentStatusExpired EnrollmentStatus = "expired"
)

// Valid reports whether s is a known status.
func (s EnrollmentStatus) Valid() bool {
	return s == EnrollmentStatusActive || s == EnrollmentStatusExpired
}

// Enrollment tracks how many access days a student has been granted and has left.
//
// DaysRemaining may be negative between an anomalous write and the next sweep;
// it never exceeds EnrollmentDays.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	EnrollmentDays int              `db:"enrollment_days" json:"enrollment_days"`
	DaysRemaining  int              `db:"days_remaining" json:"days_remaining"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
	LastUpdated    time.Time        `db:"last_updated" json:"last_updated"`
}

// Usable reports whether the enrollment currently grants access.
func (e Enrollment) Usable() bool {
	return e.Status == EnrollmentStatusActive && e.DaysRemaining > 0
}

// EnrollmentDetail enriches Enrollment with student info.
type EnrollmentDetail struct {
	Enrollment
	StudentName     string `db:"student_name" json:"student_name"`
	StudentIDNumber string `db:"student_id_number" json:"student_id_number"`
	Grade           int    `db:"grade" json:"grade"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SweepRun is the per-day marker written by the enrollment decrement sweep.
type SweepRun struct {
	SweepDate time.Time `db:"sweep_date" json:"sweep_date"`
	Reduced   int64     `db:"reduced" json:"reduced"`
	Expired   int64     `db:"expired" json:"expired"`
	RanAt     time.Time `db:"ran_at" json:"ran_at"`
}

// SweepResult summarises one invocation of the decrement sweep.
type SweepResult struct {
	SweepDate time.Time `json:"sweep_date"`
	Reduced   int64     `json:"reduced"`
	Expired   int64     `json:"expired"`
	Skipped   bool      `json:"skipped"`
}
