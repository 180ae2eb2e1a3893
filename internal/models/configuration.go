package models

import "time"

// Configuration keys persisted in the configurations table.
const (
	ConfigKeyRegistrationStatus  = "registration_status"
	ConfigKeyRegistrationMessage = "registration_message"
)

// Registration status values.
const (
	RegistrationOpen   = "open"
	RegistrationClosed = "closed"
)

// Configuration represents a persisted configuration entry.
type Configuration struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedBy *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RegistrationWindow is the public view of whether signups are accepted.
type RegistrationWindow struct {
	Open      bool       `json:"open"`
	Message   string     `json:"message,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// UpdateRegistrationWindowRequest toggles signups.
type UpdateRegistrationWindowRequest struct {
	Open    *bool  `json:"open" validate:"required"`
	Message string `json:"message" validate:"omitempty,max=500"`
}
