package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduboost-api/internal/models"
	"github.com/noah-isme/eduboost-api/pkg/response"
)

type signupService interface {
	Register(ctx context.Context, req models.SignupRequest) (*models.SignupResult, error)
}

type registrationWindowService interface {
	Status(ctx context.Context) (*models.RegistrationWindow, error)
	Update(ctx context.Context, req models.UpdateRegistrationWindowRequest, actor *models.JWTClaims) (*models.RegistrationWindow, error)
}

// RegistrationHandler exposes student self-registration and the window that gates it.
type RegistrationHandler struct {
	signup signupService
	window registrationWindowService
}

// NewRegistrationHandler builds a new handler.
func NewRegistrationHandler(signup signupService, window registrationWindowService) *RegistrationHandler {
	return &RegistrationHandler{signup: signup, window: window}
}

// Signup godoc
// @Summary Register a student
// @Description Creates a student account with a free trial enrollment when the ID number passes the checks
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body models.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/signup [post]
func (h *RegistrationHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	meta := requestMeta(c)
	req.IP = meta.IP
	req.UserAgent = meta.UserAgent

	result, err := h.signup.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// WindowStatus godoc
// @Summary Registration window status
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registration [get]
func (h *RegistrationHandler) WindowStatus(c *gin.Context) {
	window, err := h.window.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// UpdateWindow godoc
// @Summary Open or close registration
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body models.UpdateRegistrationWindowRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /registration [put]
func (h *RegistrationHandler) UpdateWindow(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req models.UpdateRegistrationWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	window, err := h.window.Update(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}
