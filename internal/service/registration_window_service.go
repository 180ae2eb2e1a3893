package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type registrationWindowRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error)
	BulkUpsert(ctx context.Context, cfgs []models.Configuration) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

var registrationWindowKeys = []string{models.ConfigKeyRegistrationStatus, models.ConfigKeyRegistrationMessage}

// RegistrationWindowService controls whether public signups are accepted.
type RegistrationWindowService struct {
	repo      registrationWindowRepository
	audit     auditLogger
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationWindowService constructs the service.
func NewRegistrationWindowService(repo registrationWindowRepository, audit auditLogger, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RegistrationWindowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationWindowService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Status reports the current window. A missing row means registration is open.
func (s *RegistrationWindowService) Status(ctx context.Context) (*models.RegistrationWindow, error) {
	rows, err := s.repo.ListByKeys(ctx, registrationWindowKeys)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration status")
	}
	window := &models.RegistrationWindow{Open: true}
	for _, row := range rows {
		switch row.Key {
		case models.ConfigKeyRegistrationStatus:
			window.Open = !strings.EqualFold(strings.TrimSpace(row.Value), models.RegistrationClosed)
			updated := row.UpdatedAt
			window.UpdatedAt = &updated
		case models.ConfigKeyRegistrationMessage:
			window.Message = row.Value
		}
	}
	return window, nil
}

// Update opens or closes registration and records who did it.
func (s *RegistrationWindowService) Update(ctx context.Context, req models.UpdateRegistrationWindowRequest, actor *models.JWTClaims) (*models.RegistrationWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	prev, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}

	status := models.RegistrationOpen
	if !*req.Open {
		status = models.RegistrationClosed
	}
	message := strings.TrimSpace(req.Message)
	cfgs := []models.Configuration{
		{Key: models.ConfigKeyRegistrationStatus, Value: status, UpdatedBy: userIDPtr(actor)},
		{Key: models.ConfigKeyRegistrationMessage, Value: message, UpdatedBy: userIDPtr(actor)},
	}
	if err := s.repo.BulkUpsert(ctx, cfgs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration status")
	}

	now := time.Now().UTC()
	window := &models.RegistrationWindow{Open: *req.Open, Message: message, UpdatedAt: &now}
	s.emitAudit(ctx, actor, prev, window)
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, dashboardCachePattern)
	}
	s.logger.Info("registration window updated", zap.Bool("open", window.Open), zap.String("actor", actor.UserID))
	return window, nil
}

func (s *RegistrationWindowService) emitAudit(ctx context.Context, actor *models.JWTClaims, prev, next *models.RegistrationWindow) {
	if s.audit == nil {
		return
	}
	oldBytes, _ := json.Marshal(prev)
	newBytes, _ := json.Marshal(next)
	resourceID := models.ConfigKeyRegistrationStatus
	log := &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     models.AuditActionRegistration,
		Resource:   "configuration",
		ResourceID: &resourceID,
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  "system",
		UserAgent:  "registration-window-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record registration audit", zap.Error(err))
	}
}

func userIDPtr(actor *models.JWTClaims) *string {
	if actor == nil || actor.UserID == "" {
		return nil
	}
	return &actor.UserID
}

func strPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
