package handler

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduboost-api/internal/models"
	"github.com/noah-isme/eduboost-api/internal/service"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
	"github.com/noah-isme/eduboost-api/pkg/response"
)

type contentService interface {
	Create(ctx context.Context, mentorID string, req models.CreateContentRequest, file io.Reader) (*models.Content, error)
	ListForMentor(ctx context.Context, mentorID string, page, size int) ([]models.ContentDetail, *models.Pagination, error)
	ListForStudent(ctx context.Context, studentID, subject string, page, size int) ([]models.ContentDetail, *models.Pagination, error)
	SubjectsForStudent(ctx context.Context, studentID string) ([]string, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	DownloadToken(ctx context.Context, id string) (string, error)
	OpenDownload(ctx context.Context, token string) (*service.Attachment, error)
}

// ContentHandler exposes study material endpoints.
type ContentHandler struct {
	service      contentService
	downloadPath string
}

// NewContentHandler constructs ContentHandler. downloadPath is the public route that
// serves signed downloads.
func NewContentHandler(svc contentService, downloadPath string) *ContentHandler {
	return &ContentHandler{service: svc, downloadPath: downloadPath}
}

// Create godoc
// @Summary Publish study material
// @Description Upload a PDF or link an external resource; exactly one of file or external_url is required
// @Tags Content
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param subject formData string true "Subject"
// @Param grade formData int true "Grade"
// @Param external_url formData string false "External URL"
// @Param file formData file false "PDF file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /content [post]
func (h *ContentHandler) Create(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req models.CreateContentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	file, err := optionalUpload(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	var upload io.Reader
	if file != nil {
		defer file.Close()
		upload = file
	}

	content, err := h.service.Create(c.Request.Context(), claims.UserID, req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, content)
}

// ListMine godoc
// @Summary Content published by the signed-in mentor
// @Tags Content
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /content/mine [get]
func (h *ContentHandler) ListMine(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	items, pagination, err := h.service.ListForMentor(c.Request.Context(), claims.UserID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ListForStudent godoc
// @Summary Content for the signed-in student's grade
// @Tags Content
// @Produce json
// @Param subject query string false "Filter by subject"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Router /content/student [get]
func (h *ContentHandler) ListForStudent(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	items, pagination, err := h.service.ListForStudent(c.Request.Context(), claims.UserID, strings.TrimSpace(c.Query("subject")), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Subjects godoc
// @Summary Subjects with content for the signed-in student's grade
// @Tags Content
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /content/subjects [get]
func (h *ContentHandler) Subjects(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	subjects, err := h.service.SubjectsForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Delete godoc
// @Summary Remove content
// @Tags Content
// @Param id path string true "Content ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /content/{id} [delete]
func (h *ContentHandler) Delete(c *gin.Context) {
	claims, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DownloadLink godoc
// @Summary Issue a signed download link
// @Tags Content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /content/{id}/download-link [get]
func (h *ContentHandler) DownloadLink(c *gin.Context) {
	token, err := h.service.DownloadToken(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"token": token,
		"url":   h.downloadPath + "?token=" + url.QueryEscape(token),
	}, nil)
}

// Download godoc
// @Summary Download content with a signed token
// @Tags Content
// @Produce application/pdf
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /content/download [get]
func (h *ContentHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	attachment, err := h.service.OpenDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendAttachment(c, attachment)
}
