package models

import "time"

// Student represents a learner registered on the platform. ID matches the owning user.
type Student struct {
	ID        string    `db:"id" json:"id"`
	IDNumber  string    `db:"id_number" json:"id_number"`
	FirstName string    `db:"first_name" json:"first_name"`
	Surname   string    `db:"surname" json:"surname"`
	Grade     int       `db:"grade" json:"grade"`
	BirthDate time.Time `db:"birth_date" json:"birth_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StudentDetail contains student information with account context.
type StudentDetail struct {
	Student
	Email  string  `db:"email" json:"email"`
	Phone  *string `db:"phone" json:"phone,omitempty"`
	Active bool    `db:"active" json:"active"`
}

// FullName joins the first name and surname.
func (s Student) FullName() string {
	if s.Surname == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.Surname
}

// UpdateStudentProfileRequest holds the fields a student may change about themselves.
type UpdateStudentProfileRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	Surname   string `json:"surname" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Grade     int    `json:"grade"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Grade     int
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
