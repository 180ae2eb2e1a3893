package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	CurrentForStudent(ctx context.Context, studentID string) (*models.Enrollment, error)
	TopUp(ctx context.Context, id string, days int, at time.Time) (*models.Enrollment, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// PaymentDetails are the bank instructions shown to students who need more access days.
type PaymentDetails struct {
	BankName      string
	AccountName   string
	AccountNumber string
	Amount        string
}

// EnrollmentService manages the per-student ledger of access days.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentReader
	audit     auditLogger
	cache     *CacheService
	payment   PaymentDetails
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, audit auditLogger, cache *CacheService, payment PaymentDetails, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:      repo,
		students:  students,
		audit:     audit,
		cache:     cache,
		payment:   payment,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "status must be active or expired")
	}
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// CurrentForStudent returns the most recent enrollment of a student.
func (s *EnrollmentService) CurrentForStudent(ctx context.Context, studentID string) (*models.Enrollment, error) {
	enrollment, err := s.repo.CurrentForStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// CheckAccess returns the current enrollment when it grants access, and a payment
// required error otherwise.
func (s *EnrollmentService) CheckAccess(ctx context.Context, studentID string) (*models.Enrollment, error) {
	enrollment, err := s.repo.CurrentForStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrEnrollmentMissing
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !enrollment.Usable() {
		return enrollment, appErrors.ErrEnrollmentExpired
	}
	return enrollment, nil
}

// TopUp grants additional days. Expired enrollments become active again.
func (s *EnrollmentService) TopUp(ctx context.Context, id string, req models.TopUpRequest, actor *models.JWTClaims) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "days must be a positive number")
	}
	prev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	updated, err := s.repo.TopUp(ctx, id, req.Days, s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to top up enrollment")
	}

	s.recordAudit(ctx, actor, prev, updated)
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, dashboardCachePattern)
	}
	s.logger.Info("enrollment topped up",
		zap.String("enrollment_id", id),
		zap.Int("days", req.Days),
		zap.Int("days_remaining", updated.DaysRemaining),
	)
	return updated, nil
}

// PaymentInfo returns payment instructions for a student together with the reason
// they are shown.
func (s *EnrollmentService) PaymentInfo(ctx context.Context, studentID string) (*models.PaymentInfo, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	info := &models.PaymentInfo{
		Reason:        models.PaymentReasonRenew,
		Reference:     "STU-" + student.IDNumber,
		BankName:      s.payment.BankName,
		AccountName:   s.payment.AccountName,
		AccountNumber: s.payment.AccountNumber,
		Amount:        s.payment.Amount,
	}

	enrollment, err := s.repo.CurrentForStudent(ctx, studentID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		info.Reason = models.PaymentReasonNone
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	default:
		remaining := enrollment.DaysRemaining
		info.DaysRemaining = &remaining
		if !enrollment.Usable() {
			info.Reason = models.PaymentReasonExpired
		}
	}
	return info, nil
}

func (s *EnrollmentService) recordAudit(ctx context.Context, actor *models.JWTClaims, prev, next *models.Enrollment) {
	if s.audit == nil {
		return
	}
	oldBytes, _ := json.Marshal(prev)
	newBytes, _ := json.Marshal(next)
	id := next.ID
	log := &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     models.AuditActionEnrollmentTopUp,
		Resource:   "enrollment",
		ResourceID: &id,
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  "system",
		UserAgent:  "enrollment-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record enrollment audit", zap.Error(err))
	}
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
