package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/models"
	"github.com/noah-isme/eduboost-api/internal/repository"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	UpsertMentorProfile(ctx context.Context, userID, specialty string, bio *string) error
	UpdateMentorProfile(ctx context.Context, id string, req models.UpdateMentorProfileRequest, at time.Time) error
	ListMentors(ctx context.Context, activeOnly bool) ([]models.Mentor, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateUserRequest represents payload for creating staff accounts.
type CreateUserRequest struct {
	Email            string          `json:"email" validate:"required,email"`
	FullName         string          `json:"full_name" validate:"required,max=150"`
	Phone            string          `json:"phone" validate:"omitempty,max=32"`
	Role             models.UserRole `json:"role" validate:"required,oneof=ADMIN MENTOR"`
	Password         string          `json:"password" validate:"required,min=6"`
	SubjectSpecialty string          `json:"subject_specialty" validate:"required_if=Role MENTOR,max=100"`
	Bio              string          `json:"bio" validate:"omitempty,max=1000"`
}

// UpdateUserRequest payload for updating staff accounts.
type UpdateUserRequest struct {
	FullName         string  `json:"full_name" validate:"required,max=150"`
	Phone            string  `json:"phone" validate:"omitempty,max=32"`
	Active           *bool   `json:"active"`
	SubjectSpecialty *string `json:"subject_specialty" validate:"omitempty,max=100"`
	Bio              *string `json:"bio" validate:"omitempty,max=1000"`
}

// UserService handles mentor and administrator account management.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, paginationFor(filter.Page, filter.PageSize, total), nil
}

// ListMentors returns mentors with their profile. Inactive mentors are only included for staff views.
func (s *UserService) ListMentors(ctx context.Context, activeOnly bool) ([]models.Mentor, error) {
	mentors, err := s.repo.ListMentors(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mentors")
	}
	if mentors == nil {
		mentors = []models.Mentor{}
	}
	return mentors, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create adds a new mentor or administrator. Only a super administrator may create administrators.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actor *models.JWTClaims, meta models.LoginRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}
	if err := s.authorizeRole(actor, req.Role); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        strPtr(strings.TrimSpace(req.Phone)),
		Role:         req.Role,
		Active:       true,
		PasswordHash: passwordHash,
	}

	if err := s.repo.Create(ctx, nil, user); err != nil {
		if _, ok := repository.UniqueViolation(err); ok {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	if user.Role == models.RoleMentor {
		if err := s.repo.UpsertMentorProfile(ctx, user.ID, strings.TrimSpace(req.SubjectSpecialty), strPtr(strings.TrimSpace(req.Bio))); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save mentor profile")
		}
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"id": user.ID, "email": user.Email, "role": user.Role})
	s.audit(ctx, &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     models.AuditActionUserCreate,
		Resource:   "users",
		ResourceID: &user.ID,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	s.logger.Info("staff account created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update modifies the user attributes.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, actor *models.JWTClaims, meta models.LoginRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRole(actor, user.Role); err != nil {
		return nil, err
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"full_name": user.FullName, "active": user.Active})

	user.FullName = strings.TrimSpace(req.FullName)
	user.Phone = strPtr(strings.TrimSpace(req.Phone))
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	if user.Role == models.RoleMentor && req.SubjectSpecialty != nil {
		var bio *string
		if req.Bio != nil {
			bio = strPtr(strings.TrimSpace(*req.Bio))
		}
		if err := s.repo.UpsertMentorProfile(ctx, user.ID, strings.TrimSpace(*req.SubjectSpecialty), bio); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save mentor profile")
		}
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"full_name": user.FullName, "active": user.Active})
	s.audit(ctx, &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     models.AuditActionUserUpdate,
		Resource:   "users",
		ResourceID: &user.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return user, nil
}

// UpdateMentorProfile lets a mentor edit their own name, phone, specialty and bio.
func (s *UserService) UpdateMentorProfile(ctx context.Context, actor *models.JWTClaims, req models.UpdateMentorProfileRequest, meta models.LoginRequest) (*models.Mentor, error) {
	if actor == nil || actor.Role != models.RoleMentor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only mentors have a mentor profile")
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.SubjectSpecialty = strings.TrimSpace(req.SubjectSpecialty)
	req.Bio = strings.TrimSpace(req.Bio)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	if err := s.repo.UpdateMentorProfile(ctx, actor.UserID, req, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mentor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update mentor profile")
	}
	user, err := s.Get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"full_name": req.FullName, "subject_specialty": req.SubjectSpecialty})
	s.audit(ctx, &models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionMentorProfile,
		Resource:   "users",
		ResourceID: &user.ID,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return &models.Mentor{User: *user, SubjectSpecialty: req.SubjectSpecialty, Bio: strPtr(req.Bio)}, nil
}

// Delete performs a soft delete (inactive) on a user.
func (s *UserService) Delete(ctx context.Context, id string, actor *models.JWTClaims, meta models.LoginRequest) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeRole(actor, user.Role); err != nil {
		return err
	}
	if actor != nil && actor.UserID == user.ID {
		return appErrors.Clone(appErrors.ErrValidation, "cannot deactivate your own account")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"active": user.Active})
	newPayload, _ := json.Marshal(map[string]interface{}{"active": false})
	s.audit(ctx, &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     models.AuditActionUserDelete,
		Resource:   "users",
		ResourceID: &user.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

// authorizeRole restricts which accounts an actor may manage. Students are never managed here.
func (s *UserService) authorizeRole(actor *models.JWTClaims, target models.UserRole) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch target {
	case models.RoleMentor:
		return nil
	case models.RoleAdmin:
		if actor.Role == models.RoleSuperAdmin {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "only a super administrator can manage administrators")
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "account cannot be managed here")
	}
}

func (s *UserService) audit(ctx context.Context, log *models.AuditLog) {
	if err := s.repo.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", log.Action), zap.Error(err))
	}
}
