package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduboost-api/internal/models"
	"github.com/noah-isme/eduboost-api/pkg/response"
)

type classService interface {
	Create(ctx context.Context, mentorID string, req models.CreateClassRequest) (*models.Class, error)
	ListForMentor(ctx context.Context, mentorID string, page, size int) ([]models.ClassDetail, *models.Pagination, error)
	ListUpcoming(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error)
	ListForStudent(ctx context.Context, studentID string, page, size int) ([]models.ClassDetail, *models.Pagination, error)
	Delete(ctx context.Context, id, mentorID string) error
}

// ClassHandler exposes live class scheduling endpoints.
type ClassHandler struct {
	service classService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc classService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// Create godoc
// @Summary Schedule a class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body models.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req models.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	class, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// ListMine godoc
// @Summary Classes hosted by the signed-in mentor
// @Tags Classes
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes/mine [get]
func (h *ClassHandler) ListMine(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	classes, pagination, err := h.service.ListForMentor(c.Request.Context(), claims.UserID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// ListForStudent godoc
// @Summary Upcoming classes for the signed-in student's grade
// @Tags Classes
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Router /classes/student [get]
func (h *ClassHandler) ListForStudent(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	classes, pagination, err := h.service.ListForStudent(c.Request.Context(), claims.UserID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// ListUpcoming godoc
// @Summary Upcoming classes across mentors
// @Tags Classes
// @Produce json
// @Param subject query string false "Filter by subject"
// @Param grade query int false "Filter by grade"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) ListUpcoming(c *gin.Context) {
	grade, err := intQuery(c, "grade")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.ClassFilter{Subject: strings.TrimSpace(c.Query("subject")), Grade: grade}
	filter.Page, filter.PageSize = pageParams(c)

	classes, pagination, err := h.service.ListUpcoming(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Delete godoc
// @Summary Cancel a class
// @Tags Classes
// @Param id path string true "Class ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
