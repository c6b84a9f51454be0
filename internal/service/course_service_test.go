package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
)

type fakeCourseRepo struct {
	courses        map[int64]*models.Course
	nextID         int64
	availableCalls int
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: map[int64]*models.Course{}}
}

func (f *fakeCourseRepo) List(_ context.Context, _ models.CourseFilter) ([]models.CourseDetail, int, error) {
	details := make([]models.CourseDetail, 0, len(f.courses))
	for _, c := range f.courses {
		details = append(details, models.CourseDetail{Course: *c})
	}
	return details, len(details), nil
}

func (f *fakeCourseRepo) FindByID(_ context.Context, id int64) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseRepo) FindDetailByID(ctx context.Context, id int64) (*models.CourseDetail, error) {
	c, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CourseDetail{Course: *c}, nil
}

func (f *fakeCourseRepo) ListCurrent(_ context.Context) ([]models.CourseDetail, error) {
	var details []models.CourseDetail
	for _, c := range f.courses {
		if c.Status == models.CourseStatusPlanned || c.Status == models.CourseStatusRunning {
			details = append(details, models.CourseDetail{Course: *c})
		}
	}
	return details, nil
}

func (f *fakeCourseRepo) ListAvailable(_ context.Context) ([]models.CourseDetail, error) {
	f.availableCalls++
	var details []models.CourseDetail
	for _, c := range f.courses {
		if c.Status == models.CourseStatusPlanned && c.HasOpenSeats() {
			details = append(details, models.CourseDetail{Course: *c})
		}
	}
	return details, nil
}

func (f *fakeCourseRepo) ListByStartDateRange(_ context.Context, from, to time.Time) ([]models.CourseDetail, error) {
	var details []models.CourseDetail
	for _, c := range f.courses {
		if !c.StartDate.Before(from) && !c.StartDate.After(to) {
			details = append(details, models.CourseDetail{Course: *c})
		}
	}
	return details, nil
}

func (f *fakeCourseRepo) Create(_ context.Context, course *models.Course) error {
	f.nextID++
	course.ID = f.nextID
	cp := *course
	f.courses[course.ID] = &cp
	return nil
}

func (f *fakeCourseRepo) Update(_ context.Context, course *models.Course) error {
	if _, ok := f.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *course
	f.courses[course.ID] = &cp
	return nil
}

func (f *fakeCourseRepo) UpdateStatus(_ context.Context, id int64, status models.CourseStatus) (*models.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c.Status = status
	cp := *c
	return &cp, nil
}

func (f *fakeCourseRepo) Delete(_ context.Context, id int64) error {
	c, ok := f.courses[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Status = models.CourseStatusCancelled
	return nil
}

type fakeCourseTypeReader struct{}

func (fakeCourseTypeReader) FindByID(_ context.Context, id int64) (*models.CourseType, error) {
	if id == 1 {
		return &models.CourseType{ID: 1, Code: "B1", Name: "German B1"}, nil
	}
	return nil, sql.ErrNoRows
}

type fakeRoomReader struct{}

func (fakeRoomReader) FindByID(_ context.Context, id int64) (*models.Room, error) {
	if id == 1 {
		return &models.Room{ID: 1, Name: "Room 101", Capacity: 20, Active: true}, nil
	}
	return nil, sql.ErrNoRows
}

type fakeTrainerReader struct{}

func (fakeTrainerReader) FindByID(_ context.Context, id int64) (*models.TrainerDetail, error) {
	if id == 1 {
		return &models.TrainerDetail{Trainer: models.Trainer{ID: 1, FirstName: "Eva", LastName: "Lang"}}, nil
	}
	return nil, sql.ErrNoRows
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	m.entries = map[string][]byte{}
	return nil
}

func newCourseFixture(cacheRepo CacheRepository) (*CourseService, *fakeCourseRepo) {
	repo := newFakeCourseRepo()
	var cache *CacheService
	if cacheRepo != nil {
		cache = NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	}
	svc := NewCourseService(repo, fakeCourseTypeReader{}, fakeRoomReader{}, fakeTrainerReader{}, cache, nil, nil, 0, time.Minute)
	return svc, repo
}

func courseRequestFixture() CourseRequest {
	return CourseRequest{
		Name:         "German B1 Evening",
		CourseTypeID: 1,
		RoomID:       1,
		TrainerID:    1,
		StartDate:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCourseServiceCreateDefaults(t *testing.T) {
	svc, _ := newCourseFixture(nil)

	created, err := svc.Create(context.Background(), courseRequestFixture())
	require.NoError(t, err)
	require.Equal(t, models.CourseStatusPlanned, created.Status)
	require.Zero(t, created.CurrentParticipants)
	require.Equal(t, 12, created.MaxParticipants)
}

func TestCourseServiceCreateInvalidDateRange(t *testing.T) {
	svc, _ := newCourseFixture(nil)

	req := courseRequestFixture()
	end := req.StartDate.AddDate(0, 0, -1)
	req.EndDate = &end

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceCreateCapacityAboveLimit(t *testing.T) {
	svc, _ := newCourseFixture(nil)

	req := courseRequestFixture()
	req.MaxParticipants = 500

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.MaxParticipants = 50
	course, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 50, course.MaxParticipants)
}

func TestCourseServiceCreateUnknownTrainer(t *testing.T) {
	svc, _ := newCourseFixture(nil)

	req := courseRequestFixture()
	req.TrainerID = 99

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceUpdateCapacityBelowRoster(t *testing.T) {
	svc, repo := newCourseFixture(nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, courseRequestFixture())
	require.NoError(t, err)
	repo.courses[created.ID].CurrentParticipants = 5

	req := courseRequestFixture()
	req.MaxParticipants = 3
	_, err = svc.Update(ctx, created.ID, req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	req.MaxParticipants = 5
	updated, err := svc.Update(ctx, created.ID, req)
	require.NoError(t, err)
	require.Equal(t, 5, updated.MaxParticipants)
}

func TestCourseServiceUpdateStatusUnknown(t *testing.T) {
	svc, _ := newCourseFixture(nil)

	_, err := svc.UpdateStatus(context.Background(), 1, models.CourseStatus("archived"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceListAvailableCaching(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	svc, repo := newCourseFixture(cacheRepo)
	ctx := context.Background()

	_, err := svc.Create(ctx, courseRequestFixture())
	require.NoError(t, err)

	first, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, repo.availableCalls)

	svc.InvalidateAvailable(ctx)
	_, err = svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.availableCalls)
}
