package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduboost-api/internal/middleware"
	"github.com/noah-isme/eduboost-api/internal/models"
	"github.com/noah-isme/eduboost-api/pkg/response"
)

type announcementService interface {
	Recent(ctx context.Context, limit int) ([]models.Announcement, error)
	Create(ctx context.Context, req models.CreateAnnouncementRequest, actor *models.JWTClaims) (*models.Announcement, error)
}

// AnnouncementHandler exposes announcements.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs AnnouncementHandler.
func NewAnnouncementHandler(svc announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

// List godoc
// @Summary Recent announcements
// @Tags Announcements
// @Produce json
// @Param limit query int false "Maximum number of announcements"
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Post an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body models.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req models.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, middleware.Principal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}
