package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduboost-api/internal/models"
	"github.com/noah-isme/eduboost-api/internal/service"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
	"github.com/noah-isme/eduboost-api/pkg/export"
	"github.com/noah-isme/eduboost-api/pkg/response"
)

const defaultSweepHistory = 30

type enrollmentService interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error)
	CurrentForStudent(ctx context.Context, studentID string) (*models.Enrollment, error)
	TopUp(ctx context.Context, id string, req models.TopUpRequest, actor *models.JWTClaims) (*models.Enrollment, error)
	PaymentInfo(ctx context.Context, studentID string) (*models.PaymentInfo, error)
}

type ledgerExporter interface {
	EnrollmentLedger(ctx context.Context, format export.Format, status models.EnrollmentStatus) (*service.ExportFile, error)
}

type sweepTrigger interface {
	Trigger(actor *models.JWTClaims) (time.Time, error)
}

type sweepHistory interface {
	ListRecent(ctx context.Context, limit int) ([]models.SweepRun, error)
}

// EnrollmentHandler exposes the enrollment ledger and the decrement sweep.
type EnrollmentHandler struct {
	service  enrollmentService
	exporter ledgerExporter
	trigger  sweepTrigger
	history  sweepHistory
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(svc enrollmentService, exporter ledgerExporter, trigger sweepTrigger, history sweepHistory) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc, exporter: exporter, trigger: trigger, history: history}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param status query string false "active or expired"
// @Param student_id query string false "Filter by student"
// @Param sort_by query string false "Sort column"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	filter := models.EnrollmentFilter{
		StudentID: strings.TrimSpace(c.Query("student_id")),
		Status:    models.EnrollmentStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Page:      page,
		PageSize:  size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	enrollments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Mine godoc
// @Summary Current enrollment of the signed-in student
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/me [get]
func (h *EnrollmentHandler) Mine(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	enrollment, err := h.service.CurrentForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// PaymentInfo godoc
// @Summary Payment instructions for renewing access
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments/payment-info [get]
func (h *EnrollmentHandler) PaymentInfo(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	info, err := h.service.PaymentInfo(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// TopUp godoc
// @Summary Grant additional access days
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body models.TopUpRequest true "Days to add"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id}/top-up [post]
func (h *EnrollmentHandler) TopUp(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req models.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	enrollment, err := h.service.TopUp(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Export godoc
// @Summary Export the enrollment ledger
// @Tags Enrollments
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param status query string false "active or expired"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /enrollments/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf"))
		return
	}
	status := models.EnrollmentStatus(strings.ToLower(strings.TrimSpace(c.Query("status"))))
	file, err := h.exporter.EnrollmentLedger(c.Request.Context(), format, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("X-Export-Rows", strconv.Itoa(file.Rows))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// TriggerSweep godoc
// @Summary Queue today's enrollment decrement sweep
// @Description The sweep runs at most once per day; a repeated trigger is recorded as skipped
// @Tags Enrollments
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /enrollments/sweeps [post]
func (h *EnrollmentHandler) TriggerSweep(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	day, err := h.trigger.Trigger(claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"sweep_date": day.Format("2006-01-02"), "queued": true}, nil)
}

// ListSweeps godoc
// @Summary Recent sweep runs
// @Tags Enrollments
// @Produce json
// @Param limit query int false "Number of runs"
// @Success 200 {object} response.Envelope
// @Router /enrollments/sweeps [get]
func (h *EnrollmentHandler) ListSweeps(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultSweepHistory
	}
	runs, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}
