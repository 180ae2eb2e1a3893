package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleMentor     UserRole = "MENTOR"
	RoleStudent    UserRole = "STUDENT"
)

// IsStaff reports whether the role can administer the platform.
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Mentor is a mentor account together with its profile.
type Mentor struct {
	User
	SubjectSpecialty string  `db:"subject_specialty" json:"subject_specialty"`
	Bio              *string `db:"bio" json:"bio,omitempty"`
}

// UpdateMentorProfileRequest holds the fields a mentor may change about themselves.
type UpdateMentorProfileRequest struct {
	FullName         string `json:"full_name" validate:"required,max=150"`
	Phone            string `json:"phone" validate:"omitempty,max=32"`
	SubjectSpecialty string `json:"subject_specialty" validate:"required,max=100"`
	Bio              string `json:"bio" validate:"omitempty,max=1000"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
