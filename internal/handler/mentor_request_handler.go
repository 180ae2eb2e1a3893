package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduboost-api/internal/models"
	"github.com/noah-isme/eduboost-api/internal/service"
	"github.com/noah-isme/eduboost-api/pkg/response"
)

type mentorRequestService interface {
	Create(ctx context.Context, studentID string, req models.CreateMentorRequest, attachment io.Reader) (*models.MentorRequest, error)
	List(ctx context.Context, filter models.MentorRequestFilter, actor *models.JWTClaims) ([]models.MentorRequestDetail, *models.Pagination, error)
	UpdateStatus(ctx context.Context, id string, req models.UpdateMentorRequestStatus) error
	Stats(ctx context.Context) (*models.MentorRequestStats, error)
	Attachment(ctx context.Context, id string, actor *models.JWTClaims) (*service.Attachment, error)
}

// MentorRequestHandler exposes the mentor request queue.
type MentorRequestHandler struct {
	service mentorRequestService
}

// NewMentorRequestHandler constructs MentorRequestHandler.
func NewMentorRequestHandler(svc mentorRequestService) *MentorRequestHandler {
	return &MentorRequestHandler{service: svc}
}

// Create godoc
// @Summary Ask a mentor for help
// @Tags Mentor Requests
// @Accept multipart/form-data
// @Produce json
// @Param mentor_id formData string true "Mentor ID"
// @Param topic formData string true "Topic"
// @Param message formData string true "Message"
// @Param request_type formData string true "Request type"
// @Param attachment formData file false "PDF attachment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /mentor-requests [post]
func (h *MentorRequestHandler) Create(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req models.CreateMentorRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	file, err := optionalUpload(c, "attachment")
	if err != nil {
		response.Error(c, err)
		return
	}
	var attachment io.Reader
	if file != nil {
		defer file.Close()
		attachment = file
	}

	record, err := h.service.Create(c.Request.Context(), claims.UserID, req, attachment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List mentor requests
// @Description Students see their own requests; staff see every request
// @Tags Mentor Requests
// @Produce json
// @Param status query string false "pending, in-progress or completed"
// @Param mentor_id query string false "Filter by mentor"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /mentor-requests [get]
func (h *MentorRequestHandler) List(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	filter := models.MentorRequestFilter{
		MentorID: strings.TrimSpace(c.Query("mentor_id")),
		Status:   models.MentorRequestStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.List(c.Request.Context(), filter, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// UpdateStatus godoc
// @Summary Update request status
// @Tags Mentor Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body models.UpdateMentorRequestStatus true "Status payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mentor-requests/{id}/status [put]
func (h *MentorRequestHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateMentorRequestStatus
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stats godoc
// @Summary Request counts per status
// @Tags Mentor Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /mentor-requests/stats [get]
func (h *MentorRequestHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Attachment godoc
// @Summary Download a request attachment
// @Tags Mentor Requests
// @Produce application/pdf
// @Param id path string true "Request ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /mentor-requests/{id}/attachment [get]
func (h *MentorRequestHandler) Attachment(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	attachment, err := h.service.Attachment(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendAttachment(c, attachment)
}
