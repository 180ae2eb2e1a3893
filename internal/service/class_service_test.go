package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
)

type classRepoStub struct {
	created   []*models.Class
	filter    models.ClassFilter
	owned     map[string]string
	createErr error
}

func (s *classRepoStub) Create(ctx context.Context, class *models.Class) error {
	if s.createErr != nil {
		return s.createErr
	}
	class.ID = "class-1"
	s.created = append(s.created, class)
	return nil
}

func (s *classRepoStub) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	s.filter = filter
	return nil, 0, nil
}

func (s *classRepoStub) DeleteOwned(ctx context.Context, id, mentorID string) (bool, error) {
	owner, ok := s.owned[id]
	if !ok || owner != mentorID {
		return false, nil
	}
	delete(s.owned, id)
	return true, nil
}

var classNow = time.Date(2024, time.June, 15, 8, 0, 0, 0, time.UTC)

func newClassFixture() (*ClassService, *classRepoStub, *cacheRepoStub) {
	repo := &classRepoStub{owned: map[string]string{"class-9": "mentor-1"}}
	students := mockStudentReader{students: map[string]models.StudentDetail{
		"stu-1": {Student: models.Student{ID: "stu-1", Grade: 11}},
	}}
	cacheRepo := &cacheRepoStub{}
	svc := NewClassService(repo, students, NewCacheService(cacheRepo, nil, time.Minute, nil, true), nil, nil)
	svc.now = func() time.Time { return classNow }
	return svc, repo, cacheRepo
}

func validClassRequest() models.CreateClassRequest {
	return models.CreateClassRequest{
		Title:           " Algebra drill ",
		Subject:         "Mathematics",
		Grade:           11,
		StartsAt:        classNow.Add(48 * time.Hour),
		DurationMinutes: 60,
		Link:            "https://meet.example.com/abc",
	}
}

func TestClassServiceCreate(t *testing.T) {
	svc, repo, cacheRepo := newClassFixture()

	class, err := svc.Create(context.Background(), "mentor-1", validClassRequest())
	require.NoError(t, err)
	assert.Equal(t, "Algebra drill", class.Title)
	assert.Equal(t, models.ClassTypeLive, class.Type)
	assert.Equal(t, "mentor-1", class.MentorID)
	require.Len(t, repo.created, 1)
	assert.Equal(t, []string{dashboardCachePattern}, cacheRepo.invalidated)
}

func TestClassServiceCreateValidation(t *testing.T) {
	svc, repo, _ := newClassFixture()

	cases := map[string]func(*models.CreateClassRequest){
		"grade outside band": func(r *models.CreateClassRequest) { r.Grade = 9 },
		"bad link":           func(r *models.CreateClassRequest) { r.Link = "not a link" },
		"zero duration":      func(r *models.CreateClassRequest) { r.DurationMinutes = 0 },
		"unknown type":       func(r *models.CreateClassRequest) { r.Type = "lecture" },
		"blank title":        func(r *models.CreateClassRequest) { r.Title = "   " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validClassRequest()
			mutate(&req)
			_, err := svc.Create(context.Background(), "mentor-1", req)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
		})
	}
	assert.Empty(t, repo.created)
}

func TestClassServiceCreateFailure(t *testing.T) {
	svc, repo, _ := newClassFixture()
	repo.createErr = errors.New("db down")

	_, err := svc.Create(context.Background(), "mentor-1", validClassRequest())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}

func TestClassServiceListForStudentUsesGradeAndNow(t *testing.T) {
	svc, repo, _ := newClassFixture()

	classes, pagination, err := svc.ListForStudent(context.Background(), "stu-1", 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, classes)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 11, repo.filter.Grade)
	require.NotNil(t, repo.filter.UpcomingFrom)
	assert.True(t, repo.filter.UpcomingFrom.Equal(classNow))

	_, _, err = svc.ListForStudent(context.Background(), "ghost", 1, 10)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestClassServiceListUpcomingIgnoresMentorScope(t *testing.T) {
	svc, repo, _ := newClassFixture()

	_, _, err := svc.ListUpcoming(context.Background(), models.ClassFilter{MentorID: "mentor-1", Subject: "Physics", Grade: 12})
	require.NoError(t, err)
	assert.Empty(t, repo.filter.MentorID)
	assert.Equal(t, "Physics", repo.filter.Subject)
	assert.Equal(t, 12, repo.filter.Grade)
}

func TestClassServiceDeleteOwnOnly(t *testing.T) {
	svc, _, cacheRepo := newClassFixture()

	err := svc.Delete(context.Background(), "class-9", "mentor-2")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.Empty(t, cacheRepo.invalidated)

	require.NoError(t, svc.Delete(context.Background(), "class-9", "mentor-1"))
	assert.Equal(t, []string{dashboardCachePattern}, cacheRepo.invalidated)
}
