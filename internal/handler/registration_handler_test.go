package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type signupFake struct {
	last models.SignupRequest
	err  error
}

func (f *signupFake) Register(ctx context.Context, req models.SignupRequest) (*models.SignupResult, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.SignupResult{Student: models.Student{ID: "stu-1", IDNumber: req.IDNumber}, Score: 71, Age: 17}, nil
}

type windowFake struct {
	window models.RegistrationWindow
	actor  *models.JWTClaims
}

func (f *windowFake) Status(ctx context.Context) (*models.RegistrationWindow, error) {
	return &f.window, nil
}

func (f *windowFake) Update(ctx context.Context, req models.UpdateRegistrationWindowRequest, actor *models.JWTClaims) (*models.RegistrationWindow, error) {
	f.actor = actor
	f.window = models.RegistrationWindow{Open: *req.Open, Message: req.Message}
	return &f.window, nil
}

func TestRegistrationHandlerSignup(t *testing.T) {
	signup := &signupFake{}
	handler := NewRegistrationHandler(signup, &windowFake{})

	payload := map[string]interface{}{
		"first_name": "Ayu", "surname": "Dewi", "id_number": "0406015800088",
		"grade": 11, "email": "ayu@example.com", "password": "secret1",
	}
	c, rec := newTestContext(http.MethodPost, "/auth/signup", jsonBody(t, payload), nil)
	c.Request.Header.Set("User-Agent", "test-agent")
	handler.Signup(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "0406015800088", signup.last.IDNumber)
	assert.Equal(t, "test-agent", signup.last.UserAgent)
	assert.NotEmpty(t, signup.last.IP)
}

func TestRegistrationHandlerSignupErrors(t *testing.T) {
	signup := &signupFake{err: appErrors.ErrRegistrationClosed}
	handler := NewRegistrationHandler(signup, &windowFake{})

	c, rec := newTestContext(http.MethodPost, "/auth/signup", jsonBody(t, map[string]string{"first_name": "A"}), nil)
	handler.Signup(c)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "REGISTRATION_CLOSED", decodeEnvelope(t, rec).Error.Code)

	c, rec = newTestContext(http.MethodPost, "/auth/signup", strings.NewReader("{"), nil)
	handler.Signup(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistrationHandlerWindow(t *testing.T) {
	window := &windowFake{window: models.RegistrationWindow{Open: true}}
	handler := NewRegistrationHandler(&signupFake{}, window)

	c, rec := newTestContext(http.MethodGet, "/registration", nil, nil)
	handler.WindowStatus(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"open":true}`, string(decodeEnvelope(t, rec).Data))

	c, rec = newTestContext(http.MethodPut, "/registration", jsonBody(t, map[string]interface{}{"open": false, "message": "Closed for exams"}), adminClaims)
	handler.UpdateWindow(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, window.window.Open)
	assert.Same(t, adminClaims, window.actor)

	c, rec = newTestContext(http.MethodPut, "/registration", jsonBody(t, map[string]bool{"open": true}), nil)
	handler.UpdateWindow(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
