package models

// SignupRequest is the public self-registration payload for students.
type SignupRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	Surname   string `json:"surname" validate:"required,max=100"`
	IDNumber  string `json:"id_number"`
	Grade     int    `json:"grade"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Password  string `json:"password" validate:"required,min=6"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// SignupResult is returned after a student account is created.
type SignupResult struct {
	Student    Student    `json:"student"`
	Enrollment Enrollment `json:"enrollment"`
	Score      int        `json:"id_score"`
	Age        int        `json:"age"`
}

// PaymentReason explains why payment instructions are being shown.
type PaymentReason string

const (
	PaymentReasonExpired PaymentReason = "expired"
	PaymentReasonNone    PaymentReason = "none"
	PaymentReasonRenew   PaymentReason = "renew"
)

// PaymentInfo holds the instructions a student needs to buy more access days.
type PaymentInfo struct {
	Reason        PaymentReason `json:"reason"`
	Reference     string        `json:"reference"`
	BankName      string        `json:"bank_name"`
	AccountName   string        `json:"account_name"`
	AccountNumber string        `json:"account_number"`
	Amount        string        `json:"amount,omitempty"`
	DaysRemaining *int          `json:"days_remaining,omitempty"`
}

// TopUpRequest grants additional access days to an enrollment.
type TopUpRequest struct {
	Days int `json:"days" validate:"required,gt=0,lte=3650"`
}
