package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

const (
	adminDashboardCacheKey = "dash:admin"
	dashboardCachePattern  = "dash:*"
	recentRequestsLimit    = 5
)

type dashboardUserCounter interface {
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

type dashboardClassCounter interface {
	CountUpcoming(ctx context.Context, from time.Time) (int, error)
}

type dashboardEnrollmentCounter interface {
	CountUsable(ctx context.Context) (int, error)
}

type dashboardRequestReader interface {
	Stats(ctx context.Context) (*models.MentorRequestStats, error)
	List(ctx context.Context, filter models.MentorRequestFilter) ([]models.MentorRequestDetail, int, error)
}

type dashboardWindowReader interface {
	Status(ctx context.Context) (*models.RegistrationWindow, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the admin overview.
type DashboardService struct {
	users       dashboardUserCounter
	classes     dashboardClassCounter
	enrollments dashboardEnrollmentCounter
	requests    dashboardRequestReader
	window      dashboardWindowReader
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Users       dashboardUserCounter
	Classes     dashboardClassCounter
	Enrollments dashboardEnrollmentCounter
	Requests    dashboardRequestReader
	Window      dashboardWindowReader
	Cache       *CacheService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:       params.Users,
		classes:     params.Classes,
		enrollments: params.Enrollments,
		requests:    params.Requests,
		window:      params.Window,
		cache:       params.Cache,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Admin returns the admin dashboard and indicates whether it came from cache.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, bool, error) {
	return readThrough(ctx, s.cache, adminDashboardCacheKey, s.cfg.CacheTTL, s.composeAdmin)
}

func (s *DashboardService) composeAdmin(ctx context.Context) (*models.AdminDashboard, error) {
	now := s.now().UTC()
	summary := &models.AdminDashboard{GeneratedAt: now, RecentRequests: []models.MentorRequestDetail{}}

	var err error
	if summary.Students, err = s.users.CountByRole(ctx, models.RoleStudent); err != nil {
		return nil, dashboardErr(err, "failed to count students")
	}
	if summary.Mentors, err = s.users.CountByRole(ctx, models.RoleMentor); err != nil {
		return nil, dashboardErr(err, "failed to count mentors")
	}
	if summary.UpcomingClasses, err = s.classes.CountUpcoming(ctx, now); err != nil {
		return nil, dashboardErr(err, "failed to count classes")
	}
	if summary.ActiveEnrollments, err = s.enrollments.CountUsable(ctx); err != nil {
		return nil, dashboardErr(err, "failed to count enrollments")
	}
	stats, err := s.requests.Stats(ctx)
	if err != nil {
		return nil, dashboardErr(err, "failed to load request stats")
	}
	summary.Requests = *stats

	recent, _, err := s.requests.List(ctx, models.MentorRequestFilter{Page: 1, PageSize: recentRequestsLimit})
	if err != nil {
		return nil, dashboardErr(err, "failed to load recent requests")
	}
	if recent != nil {
		summary.RecentRequests = recent
	}

	window, err := s.window.Status(ctx)
	if err != nil {
		return nil, err
	}
	summary.Registration = *window
	s.logger.Debug("admin dashboard composed", zap.Int("students", summary.Students), zap.Int("active_enrollments", summary.ActiveEnrollments))
	return summary, nil
}

func dashboardErr(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
