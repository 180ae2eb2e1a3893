package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduboost-api/internal/models"
	"github.com/noah-isme/eduboost-api/internal/repository"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type fakeUserCounter struct {
	counts map[models.UserRole]int
	calls  int
}

func (f *fakeUserCounter) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	f.calls++
	return f.counts[role], nil
}

type fakeClassCounter struct {
	upcoming int
	from     time.Time
}

func (f *fakeClassCounter) CountUpcoming(ctx context.Context, from time.Time) (int, error) {
	f.from = from
	return f.upcoming, nil
}

type fakeEnrollmentCounter struct {
	usable int
	err    error
}

func (f fakeEnrollmentCounter) CountUsable(ctx context.Context) (int, error) {
	return f.usable, f.err
}

type fakeRequestReader struct {
	stats  models.MentorRequestStats
	recent []models.MentorRequestDetail
	filter models.MentorRequestFilter
}

func (f *fakeRequestReader) Stats(ctx context.Context) (*models.MentorRequestStats, error) {
	stats := f.stats
	return &stats, nil
}

func (f *fakeRequestReader) List(ctx context.Context, filter models.MentorRequestFilter) ([]models.MentorRequestDetail, int, error) {
	f.filter = filter
	return f.recent, len(f.recent), nil
}

type dashboardFixture struct {
	users    *fakeUserCounter
	classes  *fakeClassCounter
	requests *fakeRequestReader
	server   *miniredis.Miniredis
	service  *DashboardService
}

func newDashboardFixture(t *testing.T, enrollments fakeEnrollmentCounter) *dashboardFixture {
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	metrics := NewMetricsService()
	cache := NewCacheService(repository.NewCacheRepository(client, "eduboost", nil), metrics, time.Minute, nil, true)

	f := &dashboardFixture{
		users:   &fakeUserCounter{counts: map[models.UserRole]int{models.RoleStudent: 42, models.RoleMentor: 6}},
		classes: &fakeClassCounter{upcoming: 3},
		requests: &fakeRequestReader{
			stats:  models.MentorRequestStats{Total: 9, Pending: 4, InProgress: 3, Completed: 2},
			recent: []models.MentorRequestDetail{{MentorRequest: models.MentorRequest{ID: "req-1", Topic: "Algebra"}, StudentName: "Lerato Mokoena"}},
		},
		server: server,
	}
	f.service = NewDashboardService(DashboardServiceParams{
		Users:       f.users,
		Classes:     f.classes,
		Enrollments: enrollments,
		Requests:    f.requests,
		Window:      NewRegistrationWindowService(&configurationRepoStub{}, nil, nil, nil, nil),
		Cache:       cache,
	})
	f.service.now = func() time.Time { return time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC) }
	return f
}

func TestDashboardServiceAdminComposesAndCaches(t *testing.T) {
	f := newDashboardFixture(t, fakeEnrollmentCounter{usable: 37})

	summary, cached, err := f.service.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 42, summary.Students)
	assert.Equal(t, 6, summary.Mentors)
	assert.Equal(t, 3, summary.UpcomingClasses)
	assert.Equal(t, 37, summary.ActiveEnrollments)
	assert.Equal(t, 4, summary.Requests.Pending)
	assert.True(t, summary.Registration.Open)
	require.Len(t, summary.RecentRequests, 1)
	assert.Equal(t, recentRequestsLimit, f.requests.filter.PageSize)
	assert.Equal(t, time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC), f.classes.from)
	assert.True(t, f.server.Exists("eduboost:"+adminDashboardCacheKey))

	again, cached, err := f.service.Admin(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 42, again.Students)
	assert.Equal(t, 2, f.users.calls)
}

func TestDashboardServiceInvalidation(t *testing.T) {
	f := newDashboardFixture(t, fakeEnrollmentCounter{usable: 1})
	_, _, err := f.service.Admin(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.service.cache.Invalidate(context.Background(), dashboardCachePattern))
	assert.False(t, f.server.Exists("eduboost:"+adminDashboardCacheKey))

	_, cached, err := f.service.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestDashboardServiceCacheExpiry(t *testing.T) {
	f := newDashboardFixture(t, fakeEnrollmentCounter{usable: 1})
	_, _, err := f.service.Admin(context.Background())
	require.NoError(t, err)

	f.server.FastForward(6 * time.Minute)
	_, cached, err := f.service.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestDashboardServiceCountFailure(t *testing.T) {
	f := newDashboardFixture(t, fakeEnrollmentCounter{err: errors.New("timeout")})
	_, _, err := f.service.Admin(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.False(t, f.server.Exists("eduboost:"+adminDashboardCacheKey))
}
