package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type configurationRepoStub struct {
	items map[string]models.Configuration
	err   error
}

func (s *configurationRepoStub) ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := []models.Configuration{}
	for _, key := range keys {
		if cfg, ok := s.items[key]; ok {
			result = append(result, cfg)
		}
	}
	return result, nil
}

func (s *configurationRepoStub) BulkUpsert(ctx context.Context, cfgs []models.Configuration) error {
	if s.err != nil {
		return s.err
	}
	if s.items == nil {
		s.items = make(map[string]models.Configuration)
	}
	for _, cfg := range cfgs {
		s.items[cfg.Key] = cfg
	}
	return nil
}

type auditLoggerStub struct {
	logs []*models.AuditLog
}

func (a *auditLoggerStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func boolPtr(v bool) *bool {
	return &v
}

func TestRegistrationWindowDefaultsToOpen(t *testing.T) {
	svc := NewRegistrationWindowService(&configurationRepoStub{}, nil, nil, nil, nil)
	window, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, window.Open)
	assert.Empty(t, window.Message)
	assert.Nil(t, window.UpdatedAt)
}

func TestRegistrationWindowReadsStoredValues(t *testing.T) {
	updated := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	repo := &configurationRepoStub{items: map[string]models.Configuration{
		models.ConfigKeyRegistrationStatus:  {Key: models.ConfigKeyRegistrationStatus, Value: "CLOSED", UpdatedAt: updated},
		models.ConfigKeyRegistrationMessage: {Key: models.ConfigKeyRegistrationMessage, Value: "Back in January"},
	}}
	svc := NewRegistrationWindowService(repo, nil, nil, nil, nil)

	window, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, window.Open)
	assert.Equal(t, "Back in January", window.Message)
	require.NotNil(t, window.UpdatedAt)
	assert.Equal(t, updated, *window.UpdatedAt)
}

func TestRegistrationWindowUpdate(t *testing.T) {
	repo := &configurationRepoStub{}
	audit := &auditLoggerStub{}
	svc := NewRegistrationWindowService(repo, audit, nil, nil, nil)

	window, err := svc.Update(context.Background(), models.UpdateRegistrationWindowRequest{Open: boolPtr(false), Message: "  Full for this term "}, &models.JWTClaims{UserID: "admin-1"})
	require.NoError(t, err)
	assert.False(t, window.Open)
	assert.Equal(t, "Full for this term", window.Message)

	assert.Equal(t, models.RegistrationClosed, repo.items[models.ConfigKeyRegistrationStatus].Value)
	require.NotNil(t, repo.items[models.ConfigKeyRegistrationStatus].UpdatedBy)
	assert.Equal(t, "admin-1", *repo.items[models.ConfigKeyRegistrationStatus].UpdatedBy)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionRegistration, audit.logs[0].Action)

	reloaded, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, reloaded.Open)
}

func TestRegistrationWindowUpdateValidation(t *testing.T) {
	svc := NewRegistrationWindowService(&configurationRepoStub{}, nil, nil, nil, nil)

	_, err := svc.Update(context.Background(), models.UpdateRegistrationWindowRequest{}, &models.JWTClaims{UserID: "admin-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Update(context.Background(), models.UpdateRegistrationWindowRequest{Open: boolPtr(true)}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRegistrationWindowRepositoryFailure(t *testing.T) {
	svc := NewRegistrationWindowService(&configurationRepoStub{err: errors.New("db down")}, nil, nil, nil, nil)
	_, err := svc.Status(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
