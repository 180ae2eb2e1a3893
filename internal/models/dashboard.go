package models

import "time"

// AdminDashboard aggregates platform counters for administrators.
type AdminDashboard struct {
	Students          int                   `json:"students"`
	Mentors           int                   `json:"mentors"`
	UpcomingClasses   int                   `json:"upcoming_classes"`
	ActiveEnrollments int                   `json:"active_enrollments"`
	Requests          MentorRequestStats    `json:"requests"`
	Registration      RegistrationWindow    `json:"registration"`
	RecentRequests    []MentorRequestDetail `json:"recent_requests"`
	GeneratedAt       time.Time             `json:"generated_at"`
}
