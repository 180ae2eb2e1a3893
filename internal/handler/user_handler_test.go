package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduboost-api/internal/models"
	"github.com/noah-isme/eduboost-api/internal/service"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type userFake struct {
	activeOnly *bool
	profileFor *models.JWTClaims
	profile    models.UpdateMentorProfileRequest
	meta       models.LoginRequest
}

func (f *userFake) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	return []models.User{}, &models.Pagination{}, nil
}

func (f *userFake) ListMentors(ctx context.Context, activeOnly bool) ([]models.Mentor, error) {
	f.activeOnly = &activeOnly
	return []models.Mentor{}, nil
}

func (f *userFake) Get(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (f *userFake) Create(ctx context.Context, req service.CreateUserRequest, actor *models.JWTClaims, meta models.LoginRequest) (*models.User, error) {
	return &models.User{ID: "new"}, nil
}

func (f *userFake) Update(ctx context.Context, id string, req service.UpdateUserRequest, actor *models.JWTClaims, meta models.LoginRequest) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (f *userFake) Delete(ctx context.Context, id string, actor *models.JWTClaims, meta models.LoginRequest) error {
	return nil
}

func (f *userFake) UpdateMentorProfile(ctx context.Context, actor *models.JWTClaims, req models.UpdateMentorProfileRequest, meta models.LoginRequest) (*models.Mentor, error) {
	f.profileFor, f.profile, f.meta = actor, req, meta
	if req.SubjectSpecialty == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid profile payload")
	}
	return &models.Mentor{User: models.User{ID: actor.UserID, FullName: req.FullName}, SubjectSpecialty: req.SubjectSpecialty}, nil
}

func TestUserHandlerUpdateMentorProfile(t *testing.T) {
	fake := &userFake{}
	handler := NewUserHandler(fake)

	body := jsonBody(t, map[string]string{"full_name": "Thabo Nkosi", "subject_specialty": "Physical Sciences", "bio": "Matric prep"})
	c, rec := newTestContext(http.MethodPut, "/mentors/me", body, mentorClaims)
	c.Request.Header.Set("User-Agent", "handler-test")
	handler.UpdateMentorProfile(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.profileFor)
	assert.Equal(t, "mentor-1", fake.profileFor.UserID)
	assert.Equal(t, "Physical Sciences", fake.profile.SubjectSpecialty)
	assert.Equal(t, "Matric prep", fake.profile.Bio)
	assert.Equal(t, "handler-test", fake.meta.UserAgent)
	assert.Contains(t, rec.Body.String(), "Thabo Nkosi")

	c, rec = newTestContext(http.MethodPut, "/mentors/me", jsonBody(t, map[string]string{"full_name": "Thabo"}), mentorClaims)
	handler.UpdateMentorProfile(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(http.MethodPut, "/mentors/me", strings.NewReader("not json"), mentorClaims)
	handler.UpdateMentorProfile(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(http.MethodPut, "/mentors/me", jsonBody(t, map[string]string{}), nil)
	handler.UpdateMentorProfile(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandlerMentorsHidesInactiveFromStudents(t *testing.T) {
	fake := &userFake{}
	handler := NewUserHandler(fake)

	c, rec := newTestContext(http.MethodGet, "/mentors?include_inactive=true", nil, studentClaims)
	handler.Mentors(c)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.activeOnly)
	assert.True(t, *fake.activeOnly)

	c, rec = newTestContext(http.MethodGet, "/mentors?include_inactive=true", nil, adminClaims)
	handler.Mentors(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, *fake.activeOnly)
}
