package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"math"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
	"github.com/noah-isme/eduboost-api/pkg/storage"
)

const contentUploadDir = "content"

type contentRepository interface {
	Create(ctx context.Context, content *models.Content) error
	FindByID(ctx context.Context, id string) (*models.Content, error)
	List(ctx context.Context, filter models.ContentFilter) ([]models.ContentDetail, int, error)
	SubjectsForGrade(ctx context.Context, grade int) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// ContentService publishes study material and hands out signed download links.
type ContentService struct {
	repo      contentRepository
	students  studentReader
	files     fileStore
	policy    storage.UploadPolicy
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
}

// ContentServiceParams groups the collaborators of ContentService.
type ContentServiceParams struct {
	Repo      contentRepository
	Students  studentReader
	Files     fileStore
	Policy    storage.UploadPolicy
	Signer    *storage.SignedURLSigner
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewContentService constructs the service.
func NewContentService(params ContentServiceParams) *ContentService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &ContentService{
		repo:      params.Repo,
		students:  params.Students,
		files:     params.Files,
		policy:    params.Policy,
		signer:    params.Signer,
		validator: params.Validator,
		logger:    params.Logger,
	}
}

// Create publishes content owned by mentorID. Exactly one of file or an external URL must be supplied.
func (s *ContentService) Create(ctx context.Context, mentorID string, req models.CreateContentRequest, file io.Reader) (*models.Content, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Description = strings.TrimSpace(req.Description)
	req.ExternalURL = strings.TrimSpace(req.ExternalURL)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid content payload")
	}
	if file == nil && req.ExternalURL == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "either a PDF file or an external URL is required")
	}
	if file != nil && req.ExternalURL != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "provide a PDF file or an external URL, not both")
	}

	content := &models.Content{
		MentorID: mentorID,
		Title:    req.Title,
		Subject:  req.Subject,
		Grade:    req.Grade,
	}
	if req.Description != "" {
		content.Description = strPtr(req.Description)
	}
	if req.ExternalURL != "" {
		content.ExternalURL = strPtr(req.ExternalURL)
	}

	if file != nil {
		stored, err := storeUpload(s.files, contentUploadDir, file, s.policy)
		if err != nil {
			return nil, err
		}
		sizeMB := math.Round(float64(stored.Size)/(1024*1024)*100) / 100
		content.FilePath = strPtr(stored.Path)
		content.FileSizeMB = &sizeMB
	}

	if err := s.repo.Create(ctx, content); err != nil {
		if content.HasFile() {
			if rmErr := s.files.Delete(*content.FilePath); rmErr != nil {
				s.logger.Warn("failed to remove orphaned upload", zap.String("path", *content.FilePath), zap.Error(rmErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create content")
	}
	s.logger.Info("content published", zap.String("content_id", content.ID), zap.String("mentor_id", mentorID), zap.Bool("has_file", content.HasFile()))
	return content, nil
}

// ListForMentor returns content published by the mentor.
func (s *ContentService) ListForMentor(ctx context.Context, mentorID string, page, size int) ([]models.ContentDetail, *models.Pagination, error) {
	return s.list(ctx, models.ContentFilter{MentorID: mentorID, Page: page, PageSize: size})
}

// ListForStudent returns content for the student's grade, optionally narrowed to one subject.
func (s *ContentService) ListForStudent(ctx context.Context, studentID, subject string, page, size int) ([]models.ContentDetail, *models.Pagination, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	return s.list(ctx, models.ContentFilter{Grade: student.Grade, Subject: strings.TrimSpace(subject), Page: page, PageSize: size})
}

// SubjectsForStudent lists subjects that have content for the student's grade.
func (s *ContentService) SubjectsForStudent(ctx context.Context, studentID string) ([]string, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.repo.SubjectsForGrade(ctx, student.Grade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []string{}
	}
	return subjects, nil
}

// Delete removes content and its stored file. Mentors may only remove their own content.
func (s *ContentService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	content, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role == models.RoleMentor && content.MentorID != actor.UserID {
		return appErrors.Clone(appErrors.ErrNotFound, "content not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete content")
	}
	if content.HasFile() {
		if err := s.files.Delete(*content.FilePath); err != nil {
			s.logger.Warn("failed to remove content file", zap.String("content_id", id), zap.Error(err))
		}
	}
	s.logger.Info("content deleted", zap.String("content_id", id), zap.String("actor_id", actor.UserID))
	return nil
}

// DownloadToken signs a short-lived token for an uploaded content file.
func (s *ContentService) DownloadToken(ctx context.Context, id string) (string, error) {
	content, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	if !content.HasFile() {
		return "", appErrors.Clone(appErrors.ErrNotFound, "content has no file")
	}
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "download signing unavailable")
	}
	token, _, err := s.signer.Generate(content.ID, *content.FilePath)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	return token, nil
}

// OpenDownload validates a signed token and opens the referenced file.
func (s *ContentService) OpenDownload(ctx context.Context, token string) (*Attachment, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signing unavailable")
	}
	id, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	content, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !content.HasFile() || *content.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	f, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "file not found")
	}
	return &Attachment{File: f, Filename: content.Title + path.Ext(relPath)}, nil
}

func (s *ContentService) list(ctx context.Context, filter models.ContentFilter) ([]models.ContentDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list content")
	}
	if items == nil {
		items = []models.ContentDetail{}
	}
	return items, paginationFor(filter.Page, filter.PageSize, total), nil
}

func (s *ContentService) find(ctx context.Context, id string) (*models.Content, error) {
	content, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "content not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content")
	}
	return content, nil
}

func (s *ContentService) student(ctx context.Context, studentID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}
