package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/idscore"
	"github.com/noah-isme/eduboost-api/internal/models"
	"github.com/noah-isme/eduboost-api/internal/repository"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type registrationUserRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type registrationStudentRepository interface {
	IDNumberExists(ctx context.Context, idNumber string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error
}

type registrationEnrollmentRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
}

type registrationWindowReader interface {
	Status(ctx context.Context) (*models.RegistrationWindow, error)
}

// RegistrationPolicy captures the eligibility rules applied at signup. MinAge and
// MaxAge are clamped to the idscore age band.
type RegistrationPolicy struct {
	InitialDays   int
	MinAge        int
	MaxAge        int
	AllowedGrades []int
}

func (p RegistrationPolicy) withDefaults() RegistrationPolicy {
	if p.InitialDays <= 0 {
		p.InitialDays = 20
	}
	// Ages outside the scored band never pass the ID check, so the policy can
	// only narrow it.
	if p.MinAge < idscore.MinAge {
		p.MinAge = idscore.MinAge
	}
	if p.MaxAge <= 0 || p.MaxAge > idscore.MaxAge {
		p.MaxAge = idscore.MaxAge
	}
	if len(p.AllowedGrades) == 0 {
		p.AllowedGrades = []int{10, 11, 12}
	}
	return p
}

func (p RegistrationPolicy) gradeAllowed(grade int) bool {
	for _, g := range p.AllowedGrades {
		if g == grade {
			return true
		}
	}
	return false
}

// RegistrationService admits new students: it scores the identity number, applies the
// eligibility rules and creates the account, profile and first enrollment atomically.
type RegistrationService struct {
	tx          txProvider
	users       registrationUserRepository
	students    registrationStudentRepository
	enrollments registrationEnrollmentRepository
	window      registrationWindowReader
	policy      RegistrationPolicy
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewRegistrationService constructs the signup gate.
func NewRegistrationService(tx txProvider, users registrationUserRepository, students registrationStudentRepository, enrollments registrationEnrollmentRepository, window registrationWindowReader, policy RegistrationPolicy, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		tx:          tx,
		users:       users,
		students:    students,
		enrollments: enrollments,
		window:      window,
		policy:      policy.withDefaults(),
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Register validates a signup request and creates the student.
func (s *RegistrationService) Register(ctx context.Context, req models.SignupRequest) (*models.SignupResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.IDNumber = strings.TrimSpace(req.IDNumber)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.Surname = strings.TrimSpace(req.Surname)

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup payload")
	}

	if s.window != nil {
		window, err := s.window.Status(ctx)
		if err != nil {
			return nil, err
		}
		if !window.Open {
			msg := appErrors.ErrRegistrationClosed.Message
			if window.Message != "" {
				msg = window.Message
			}
			return nil, appErrors.Clone(appErrors.ErrRegistrationClosed, msg)
		}
	}

	now := s.now()
	score := idscore.Evaluate(req.IDNumber, now)
	if !score.Passed {
		return nil, appErrors.WithDetails(appErrors.ErrIDValidationFailed, score.Messages...)
	}
	if score.Age == nil || score.BirthDate == nil {
		return nil, appErrors.Clone(appErrors.ErrAgeUnavailable, "")
	}
	if *score.Age < s.policy.MinAge || *score.Age > s.policy.MaxAge {
		return nil, appErrors.Clone(appErrors.ErrAgeOutOfRange, fmt.Sprintf("age not allowed (%d-%d only)", s.policy.MinAge, s.policy.MaxAge))
	}
	if !s.policy.gradeAllowed(req.Grade) {
		return nil, appErrors.Clone(appErrors.ErrInvalidGrade, "")
	}

	taken, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	taken, err = s.students.IDNumberExists(ctx, req.IDNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student ID")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student ID already registered")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FirstName + " " + req.Surname,
		Role:         models.RoleStudent,
		Active:       true,
	}
	if req.Phone != "" {
		phone := strings.TrimSpace(req.Phone)
		user.Phone = &phone
	}
	student := &models.Student{
		IDNumber:  req.IDNumber,
		FirstName: req.FirstName,
		Surname:   req.Surname,
		Grade:     req.Grade,
		BirthDate: *score.BirthDate,
		CreatedAt: now.UTC(),
	}
	enrollment := &models.Enrollment{
		EnrollmentDays: s.policy.InitialDays,
		DaysRemaining:  s.policy.InitialDays,
		Status:         models.EnrollmentStatusActive,
		EnrollmentDate: now.UTC(),
		LastUpdated:    now.UTC(),
	}

	if err := s.persist(ctx, user, student, enrollment); err != nil {
		if constraint, ok := repository.UniqueViolation(err); ok {
			if strings.Contains(constraint, "email") {
				return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "student ID already registered")
		}
		s.logger.Error("student registration failed", zap.String("email", req.Email), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrRegistrationFailed.Code, appErrors.ErrRegistrationFailed.Status, appErrors.ErrRegistrationFailed.Message)
	}

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionSignup,
		Resource:   "student",
		ResourceID: &student.ID,
		NewValues:  []byte(fmt.Sprintf(`{"grade":%d,"enrollment_days":%d}`, student.Grade, enrollment.EnrollmentDays)),
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record signup audit log", zap.Error(err))
	}

	s.logger.Info("student registered", zap.String("student_id", student.ID), zap.Int("grade", student.Grade), zap.Int("id_score", score.Score))

	return &models.SignupResult{
		Student:    *student,
		Enrollment: *enrollment,
		Score:      score.Score,
		Age:        *score.Age,
	}, nil
}

func (s *RegistrationService) persist(ctx context.Context, user *models.User, student *models.Student, enrollment *models.Enrollment) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.users.Create(ctx, tx, user); err != nil {
		return err
	}
	student.ID = user.ID
	if err = s.students.Create(ctx, tx, student); err != nil {
		return err
	}
	enrollment.StudentID = student.ID
	if err = s.enrollments.Create(ctx, tx, enrollment); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit registration tx: %w", err)
	}
	return nil
}
