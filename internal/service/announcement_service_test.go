package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type announcementRepoStub struct {
	created []*models.Announcement
	limit   int
}

func (s *announcementRepoStub) Create(ctx context.Context, announcement *models.Announcement) error {
	announcement.ID = "ann-1"
	s.created = append(s.created, announcement)
	return nil
}

func (s *announcementRepoStub) ListRecent(ctx context.Context, limit int) ([]models.Announcement, error) {
	s.limit = limit
	return nil, nil
}

func TestAnnouncementServiceCreate(t *testing.T) {
	repo := &announcementRepoStub{}
	svc := NewAnnouncementService(repo, nil, nil)

	ann, err := svc.Create(context.Background(), models.CreateAnnouncementRequest{Title: " Exams ", Message: "Mock exams start Monday"}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "Exams", ann.Title)
	assert.Equal(t, adminActor.UserID, ann.CreatedBy)
	require.Len(t, repo.created, 1)

	_, err = svc.Create(context.Background(), models.CreateAnnouncementRequest{Title: "Exams"}, adminActor)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.Create(context.Background(), models.CreateAnnouncementRequest{Title: "Exams", Message: "x"}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
}

func TestAnnouncementServiceRecentClampsLimit(t *testing.T) {
	repo := &announcementRepoStub{}
	svc := NewAnnouncementService(repo, nil, nil)

	rows, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Equal(t, defaultAnnouncementLimit, repo.limit)

	_, err = svc.Recent(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, maxAnnouncementLimit, repo.limit)
}
