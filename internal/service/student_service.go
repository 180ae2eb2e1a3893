package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	UpdateProfile(ctx context.Context, id string, req models.UpdateStudentProfileRequest, at time.Time) error
}

type studentAccounts interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type currentEnrollmentReader interface {
	CurrentForStudent(ctx context.Context, studentID string) (*models.Enrollment, error)
}

// StudentProfile is a student's own view of their account and access.
type StudentProfile struct {
	models.StudentDetail
	Enrollment *models.Enrollment `json:"enrollment,omitempty"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo          studentRepository
	accounts      studentAccounts
	enrollments   currentEnrollmentReader
	allowedGrades []int
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewStudentService constructs the student service. allowedGrades bounds the grade
// a student may move themselves to.
func NewStudentService(repo studentRepository, accounts studentAccounts, enrollments currentEnrollmentReader, allowedGrades []int, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	policy := RegistrationPolicy{AllowedGrades: allowedGrades}.withDefaults()
	return &StudentService{
		repo:          repo,
		accounts:      accounts,
		enrollments:   enrollments,
		allowedGrades: policy.AllowedGrades,
		validator:     validate,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.StudentDetail{}
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Profile returns the student with their most recent enrollment, if any.
func (s *StudentService) Profile(ctx context.Context, id string) (*StudentProfile, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := &StudentProfile{StudentDetail: *student}
	enrollment, err := s.enrollments.CurrentForStudent(ctx, id)
	switch {
	case err == nil:
		profile.Enrollment = enrollment
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return profile, nil
}

// UpdateProfile lets a student correct their own name, phone and grade. The grade
// must be one of the signup grades.
func (s *StudentService) UpdateProfile(ctx context.Context, id string, req models.UpdateStudentProfileRequest) (*StudentProfile, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.Surname = strings.TrimSpace(req.Surname)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	if !(RegistrationPolicy{AllowedGrades: s.allowedGrades}).gradeAllowed(req.Grade) {
		return nil, appErrors.Clone(appErrors.ErrInvalidGrade, "")
	}

	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, id, req, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	entry := &models.AuditLog{
		UserID:     strPtr(id),
		Action:     models.AuditActionStudentProfile,
		Resource:   "student",
		ResourceID: strPtr(id),
		OldValues:  []byte(fmt.Sprintf(`{"grade":%d}`, before.Grade)),
		NewValues:  []byte(fmt.Sprintf(`{"grade":%d}`, req.Grade)),
	}
	if err := s.accounts.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", entry.Action), zap.Error(err))
	}
	if before.Grade != req.Grade {
		s.logger.Info("student changed grade", zap.String("student_id", id), zap.Int("from", before.Grade), zap.Int("to", req.Grade))
	}
	return s.Profile(ctx, id)
}

// SetActive enables or disables a student's login. Disabling revokes their sessions.
func (s *StudentService) SetActive(ctx context.Context, id string, active bool, actor *models.JWTClaims) error {
	user, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if user.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if user.Active == active {
		return nil
	}
	user.Active = active
	user.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if !active {
		if err := s.accounts.RevokeUserRefreshTokens(ctx, id); err != nil {
			s.logger.Warn("failed to revoke student sessions", zap.String("student_id", id), zap.Error(err))
		}
	}

	action := models.AuditActionStudentActivate
	if !active {
		action = models.AuditActionStudentDeactivate
	}
	entry := &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     action,
		Resource:   "student",
		ResourceID: strPtr(id),
		NewValues:  []byte(fmt.Sprintf(`{"active":%t}`, active)),
	}
	if err := s.accounts.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
	s.logger.Info("student account updated", zap.String("student_id", id), zap.Bool("active", active))
	return nil
}
