package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduboost-api/internal/handler"
	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
	"github.com/noah-isme/eduboost-api/pkg/config"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type accessStub struct{ err error }

func (s accessStub) CheckAccess(ctx context.Context, studentID string) (*models.Enrollment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Enrollment{StudentID: studentID, DaysRemaining: 3, Status: models.EnrollmentStatusActive}, nil
}

type windowStub struct{}

func (windowStub) Status(ctx context.Context) (*models.RegistrationWindow, error) {
	return &models.RegistrationWindow{Open: true}, nil
}

func (windowStub) Update(ctx context.Context, req models.UpdateRegistrationWindowRequest, actor *models.JWTClaims) (*models.RegistrationWindow, error) {
	return &models.RegistrationWindow{Open: *req.Open}, nil
}

func newTestEngine(access accessStub, readiness map[string]ReadinessCheck) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: config.EnvDevelopment, APIPrefix: "api/v1/"}
	cfg.Dashboard.Enabled = true
	return New(cfg, Dependencies{
		Auth:           handler.NewAuthHandler(nil),
		Registration:   handler.NewRegistrationHandler(nil, windowStub{}),
		Enrollments:    handler.NewEnrollmentHandler(nil, nil, nil, nil),
		Users:          handler.NewUserHandler(nil),
		Students:       handler.NewStudentHandler(nil),
		MentorRequests: handler.NewMentorRequestHandler(nil),
		Classes:        handler.NewClassHandler(nil),
		Content:        handler.NewContentHandler(nil, ContentDownloadRoute),
		Announcements:  handler.NewAnnouncementHandler(nil),
		Dashboard:      handler.NewDashboardHandler(nil),
		Metrics:        handler.NewMetricsHandler(nil),
		Tokens: tokenStub{
			"student": {UserID: "stu-1", Role: models.RoleStudent},
			"mentor":  {UserID: "mentor-1", Role: models.RoleMentor},
		},
		Access:    access,
		Readiness: readiness,
	})
}

func serve(engine *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRouterPublicRoutes(t *testing.T) {
	engine := newTestEngine(accessStub{}, nil)

	rec := serve(engine, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(engine, http.MethodGet, "/api/v1/registration", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterRoleChecks(t *testing.T) {
	engine := newTestEngine(accessStub{}, nil)

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/enrollments", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/api/v1/enrollments", "student").Code)
	assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodPost, "/api/v1/enrollments/sweeps", "mentor").Code)
	assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodPost, "/api/v1/classes", "student").Code)
	assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/api/v1/classes/student", "mentor").Code)
	assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodPut, "/api/v1/students/me", "mentor").Code)
	assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodPut, "/api/v1/mentors/me", "student").Code)
}

func TestRouterEnrollmentGateReturnsPaymentRequired(t *testing.T) {
	engine := newTestEngine(accessStub{err: appErrors.ErrEnrollmentExpired}, nil)

	rec := serve(engine, http.MethodGet, "/api/v1/content/subjects", "student")
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "ENROLLMENT_EXPIRED")
}

func TestRouterReadiness(t *testing.T) {
	engine := newTestEngine(accessStub{}, map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rec := serve(engine, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"postgres":"ok","redis":"connection refused"}}`, rec.Body.String())
}

func TestAPIPath(t *testing.T) {
	assert.Equal(t, "/api/v1/content/download", APIPath("api/v1/", ContentDownloadRoute))
	assert.Equal(t, "/content/download", APIPath("", ContentDownloadRoute))
}
