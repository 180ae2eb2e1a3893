package handler

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduboost-api/internal/models"
	"github.com/noah-isme/eduboost-api/internal/service"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type contentFake struct {
	req       models.CreateContentRequest
	upload    []byte
	subject   string
	deletedBy *models.JWTClaims
	openToken string
}

func (f *contentFake) Create(ctx context.Context, mentorID string, req models.CreateContentRequest, file io.Reader) (*models.Content, error) {
	f.req = req
	if file != nil {
		f.upload, _ = io.ReadAll(file)
	}
	return &models.Content{ID: "cnt-1", MentorID: mentorID, Title: req.Title, Grade: req.Grade}, nil
}

func (f *contentFake) ListForMentor(ctx context.Context, mentorID string, page, size int) ([]models.ContentDetail, *models.Pagination, error) {
	return []models.ContentDetail{}, &models.Pagination{Page: page, PageSize: size}, nil
}

func (f *contentFake) ListForStudent(ctx context.Context, studentID, subject string, page, size int) ([]models.ContentDetail, *models.Pagination, error) {
	f.subject = subject
	return []models.ContentDetail{}, &models.Pagination{Page: page, PageSize: size}, nil
}

func (f *contentFake) SubjectsForStudent(ctx context.Context, studentID string) ([]string, error) {
	return []string{"Mathematics", "Physics"}, nil
}

func (f *contentFake) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	f.deletedBy = actor
	return nil
}

func (f *contentFake) DownloadToken(ctx context.Context, id string) (string, error) {
	return "abc+def/ghi", nil
}

func (f *contentFake) OpenDownload(ctx context.Context, token string) (*service.Attachment, error) {
	f.openToken = token
	return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
}

func TestContentHandlerCreateMultipart(t *testing.T) {
	fake := &contentFake{}
	handler := NewContentHandler(fake, "/api/v1/content/download")

	fields := map[string]string{"title": "Algebra notes", "subject": "Mathematics", "grade": "11"}
	body, contentType := multipartBody(t, fields, "file", "algebra.pdf", []byte("%PDF-1.4 algebra"))
	c, rec := newTestContext(http.MethodPost, "/content", body, mentorClaims)
	c.Request.Header.Set("Content-Type", contentType)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 11, fake.req.Grade)
	assert.Equal(t, "Algebra notes", fake.req.Title)
	assert.Equal(t, []byte("%PDF-1.4 algebra"), fake.upload)
}

func TestContentHandlerStudentViews(t *testing.T) {
	fake := &contentFake{}
	handler := NewContentHandler(fake, "/api/v1/content/download")

	c, rec := newTestContext(http.MethodGet, "/content/student?subject=+Physics+", nil, studentClaims)
	handler.ListForStudent(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Physics", fake.subject)

	c, rec = newTestContext(http.MethodGet, "/content/subjects", nil, studentClaims)
	handler.Subjects(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Mathematics","Physics"]`, string(decodeEnvelope(t, rec).Data))
}

func TestContentHandlerDownloadLink(t *testing.T) {
	handler := NewContentHandler(&contentFake{}, "/api/v1/content/download")

	c, rec := newTestContext(http.MethodGet, "/content/cnt-1/download-link", nil, studentClaims)
	c.AddParam("id", "cnt-1")
	handler.DownloadLink(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"abc+def/ghi","url":"/api/v1/content/download?token=abc%2Bdef%2Fghi"}`, string(decodeEnvelope(t, rec).Data))
}

func TestContentHandlerDownloadRejectsBadToken(t *testing.T) {
	fake := &contentFake{}
	handler := NewContentHandler(fake, "/api/v1/content/download")

	c, rec := newTestContext(http.MethodGet, "/content/download", nil, nil)
	handler.Download(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/content/download?token=forged", nil, nil)
	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forged", fake.openToken)
}

func TestContentHandlerDeletePassesActor(t *testing.T) {
	fake := &contentFake{}
	handler := NewContentHandler(fake, "")

	c, rec := newTestContext(http.MethodDelete, "/content/cnt-1", nil, mentorClaims)
	c.AddParam("id", "cnt-1")
	handler.Delete(c)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Same(t, mentorClaims, fake.deletedBy)
}
