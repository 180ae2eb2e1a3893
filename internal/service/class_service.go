package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type classRepository interface {
	Create(ctx context.Context, class *models.Class) error
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	DeleteOwned(ctx context.Context, id, mentorID string) (bool, error)
}

// ClassService manages live classes hosted by mentors.
type ClassService struct {
	repo      classRepository
	students  studentReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewClassService constructs the service.
func NewClassService(repo classRepository, students studentReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, students: students, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// Create schedules a class owned by mentorID.
func (s *ClassService) Create(ctx context.Context, mentorID string, req models.CreateClassRequest) (*models.Class, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Type == "" {
		req.Type = models.ClassTypeLive
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class := &models.Class{
		MentorID:        mentorID,
		Title:           req.Title,
		Subject:         req.Subject,
		Topic:           req.Topic,
		Type:            req.Type,
		Grade:           req.Grade,
		StartsAt:        req.StartsAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Link:            req.Link,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.invalidate(ctx)
	s.logger.Info("class scheduled", zap.String("class_id", class.ID), zap.String("mentor_id", mentorID), zap.Time("starts_at", class.StartsAt))
	return class, nil
}

// ListForMentor returns every class the mentor hosts.
func (s *ClassService) ListForMentor(ctx context.Context, mentorID string, page, size int) ([]models.ClassDetail, *models.Pagination, error) {
	return s.list(ctx, models.ClassFilter{MentorID: mentorID, Page: page, PageSize: size})
}

// ListUpcoming returns classes that have not started yet, narrowed by the admin's filters.
func (s *ClassService) ListUpcoming(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	from := s.now().UTC()
	filter.UpcomingFrom = &from
	filter.MentorID = ""
	return s.list(ctx, filter)
}

// ListForStudent returns upcoming classes for the student's grade.
func (s *ClassService) ListForStudent(ctx context.Context, studentID string, page, size int) ([]models.ClassDetail, *models.Pagination, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return s.ListUpcoming(ctx, models.ClassFilter{Grade: student.Grade, Page: page, PageSize: size})
}

// Delete removes a class. Mentors can only delete their own.
func (s *ClassService) Delete(ctx context.Context, id, mentorID string) error {
	deleted, err := s.repo.DeleteOwned(ctx, id, mentorID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	s.invalidate(ctx)
	s.logger.Info("class deleted", zap.String("class_id", id), zap.String("mentor_id", mentorID))
	return nil
}

func (s *ClassService) list(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	if filter.Grade < 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid grade filter")
	}
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	if classes == nil {
		classes = []models.ClassDetail{}
	}
	return classes, paginationFor(filter.Page, filter.PageSize, total), nil
}

// invalidate drops the cached dashboard, whose upcoming-class count depends on classes.
func (s *ClassService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, dashboardCachePattern)
}
