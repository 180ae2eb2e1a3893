package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

const (
	defaultAnnouncementLimit = 20
	maxAnnouncementLimit     = 100
)

type announcementRepository interface {
	Create(ctx context.Context, announcement *models.Announcement) error
	ListRecent(ctx context.Context, limit int) ([]models.Announcement, error)
}

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	repo      announcementRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, validator: validate, logger: logger}
}

// Recent returns the newest announcements, newest first.
func (s *AnnouncementService) Recent(ctx context.Context, limit int) ([]models.Announcement, error) {
	if limit <= 0 {
		limit = defaultAnnouncementLimit
	}
	if limit > maxAnnouncementLimit {
		limit = maxAnnouncementLimit
	}
	rows, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	if rows == nil {
		rows = []models.Announcement{}
	}
	return rows, nil
}

// Create posts a new announcement authored by the actor.
func (s *AnnouncementService) Create(ctx context.Context, req models.CreateAnnouncementRequest, actor *models.JWTClaims) (*models.Announcement, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	announcement := &models.Announcement{
		Title:     req.Title,
		Message:   req.Message,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	s.logger.Info("announcement posted", zap.String("announcement_id", announcement.ID), zap.String("created_by", actor.UserID))
	return announcement, nil
}
