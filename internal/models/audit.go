package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin           = "LOGIN"
	AuditActionLogout          = "LOGOUT"
	AuditActionSignup          = "SIGNUP"
	AuditActionUserCreate      = "USER_CREATE"
	AuditActionUserUpdate      = "USER_UPDATE"
	AuditActionUserDelete      = "USER_DELETE"
	AuditActionPasswordChange  = "PASSWORD_CHANGE"
	AuditActionEnrollmentTopUp = "ENROLLMENT_TOPUP"
	AuditActionEnrollmentSweep = "ENROLLMENT_SWEEP"
	AuditActionRegistration    = "REGISTRATION_TOGGLE"

	AuditActionStudentActivate   = "STUDENT_ACTIVATE"
	AuditActionStudentDeactivate = "STUDENT_DEACTIVATE"
	AuditActionStudentProfile    = "STUDENT_PROFILE_UPDATE"
	AuditActionMentorProfile     = "MENTOR_PROFILE_UPDATE"

	// Route-level actions recorded by the audit middleware.
	AuditActionRequestStatus      = "MENTOR_REQUEST_STATUS"
	AuditActionClassCreate        = "CLASS_CREATE"
	AuditActionClassDelete        = "CLASS_DELETE"
	AuditActionContentCreate      = "CONTENT_CREATE"
	AuditActionContentDelete      = "CONTENT_DELETE"
	AuditActionAnnouncementCreate = "ANNOUNCEMENT_CREATE"
	AuditActionLedgerExport       = "LEDGER_EXPORT"
	AuditActionSweepTrigger       = "SWEEP_TRIGGER"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
