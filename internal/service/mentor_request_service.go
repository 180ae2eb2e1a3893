package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
	"github.com/noah-isme/eduboost-api/pkg/storage"
)

const mentorRequestUploadDir = "requests"

type mentorRequestRepository interface {
	Create(ctx context.Context, req *models.MentorRequest) error
	FindByID(ctx context.Context, id string) (*models.MentorRequest, error)
	List(ctx context.Context, filter models.MentorRequestFilter) ([]models.MentorRequestDetail, int, error)
	UpdateStatus(ctx context.Context, id string, status models.MentorRequestStatus) (bool, error)
	Stats(ctx context.Context) (*models.MentorRequestStats, error)
}

type mentorLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// MentorRequestService runs the queue of student requests for mentor help.
type MentorRequestService struct {
	repo      mentorRequestRepository
	users     mentorLookup
	files     fileStore
	policy    storage.UploadPolicy
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMentorRequestService constructs the service.
func NewMentorRequestService(repo mentorRequestRepository, users mentorLookup, files fileStore, policy storage.UploadPolicy, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *MentorRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MentorRequestService{repo: repo, users: users, files: files, policy: policy, cache: cache, validator: validate, logger: logger}
}

// Create files a new pending request. attachment may be nil.
func (s *MentorRequestService) Create(ctx context.Context, studentID string, req models.CreateMentorRequest, attachment io.Reader) (*models.MentorRequest, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	req.Message = strings.TrimSpace(req.Message)
	req.RequestType = strings.TrimSpace(req.RequestType)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}

	mentor, err := s.users.FindByID(ctx, req.MentorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "mentor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentor")
	}
	if mentor.Role != models.RoleMentor || !mentor.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mentor is not available")
	}

	record := &models.MentorRequest{
		StudentID:   studentID,
		MentorID:    mentor.ID,
		Topic:       req.Topic,
		Message:     req.Message,
		RequestType: req.RequestType,
		Status:      models.MentorRequestPending,
	}
	if attachment != nil {
		stored, err := storeUpload(s.files, mentorRequestUploadDir, attachment, s.policy)
		if err != nil {
			return nil, err
		}
		record.AttachmentPath = &stored.Path
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if record.AttachmentPath != nil {
			_ = s.files.Delete(*record.AttachmentPath)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	s.invalidateDashboard(ctx)
	s.logger.Info("mentor request created",
		zap.String("request_id", record.ID),
		zap.String("mentor_id", record.MentorID),
		zap.Bool("attachment", record.AttachmentPath != nil),
	)
	return record, nil
}

// List returns requests for the caller: students only see their own.
func (s *MentorRequestService) List(ctx context.Context, filter models.MentorRequestFilter, actor *models.JWTClaims) ([]models.MentorRequestDetail, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleStudent {
		filter.StudentID = actor.UserID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status")
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	if items == nil {
		items = []models.MentorRequestDetail{}
	}
	return items, paginationFor(filter.Page, filter.PageSize, total), nil
}

// UpdateStatus moves a request to one of the known statuses.
func (s *MentorRequestService) UpdateStatus(ctx context.Context, id string, req models.UpdateMentorRequestStatus) error {
	req.Status = models.MentorRequestStatus(strings.ToLower(strings.TrimSpace(string(req.Status))))
	if !req.Status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "status must be pending, in-progress or completed")
	}
	matched, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	if !matched {
		return appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// Stats counts requests per status.
func (s *MentorRequestService) Stats(ctx context.Context) (*models.MentorRequestStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request stats")
	}
	return stats, nil
}

// Attachment opens the file attached to a request. Students may only open their own.
func (s *MentorRequestService) Attachment(ctx context.Context, id string, actor *models.JWTClaims) (*Attachment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if actor.Role == models.RoleStudent && record.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	if record.AttachmentPath == nil || *record.AttachmentPath == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request has no attachment")
	}
	file, err := s.files.Open(*record.AttachmentPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "attachment missing")
	}
	return &Attachment{File: file, Filename: path.Base(*record.AttachmentPath)}, nil
}

func (s *MentorRequestService) invalidateDashboard(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, dashboardCachePattern)
	}
}
