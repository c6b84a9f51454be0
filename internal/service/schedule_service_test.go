package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
)

type fakeScheduleRepo struct {
	slots  map[int64]*models.ScheduleSlot
	nextID int64
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{slots: map[int64]*models.ScheduleSlot{}}
}

func (f *fakeScheduleRepo) ListActive(_ context.Context) ([]models.ScheduleSlot, error) {
	var slots []models.ScheduleSlot
	for _, s := range f.slots {
		if s.Active {
			slots = append(slots, *s)
		}
	}
	return slots, nil
}

func (f *fakeScheduleRepo) FindByID(_ context.Context, id int64) (*models.ScheduleSlot, error) {
	if s, ok := f.slots[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeScheduleRepo) ListByCourse(_ context.Context, courseID int64) ([]models.ScheduleSlot, error) {
	var slots []models.ScheduleSlot
	for _, s := range f.slots {
		if s.CourseID == courseID {
			slots = append(slots, *s)
		}
	}
	return slots, nil
}

func (f *fakeScheduleRepo) ListActiveByCourseAndWeekday(_ context.Context, courseID int64, weekday string) ([]models.ScheduleSlot, error) {
	var slots []models.ScheduleSlot
	for _, s := range f.slots {
		if s.Active && s.CourseID == courseID && s.Weekday == weekday {
			slots = append(slots, *s)
		}
	}
	return slots, nil
}

func (f *fakeScheduleRepo) ListActiveByWeekday(_ context.Context, weekday string) ([]models.ScheduleSlot, error) {
	var slots []models.ScheduleSlot
	for _, s := range f.slots {
		if s.Active && s.Weekday == weekday {
			slots = append(slots, *s)
		}
	}
	return slots, nil
}

func (f *fakeScheduleRepo) Create(_ context.Context, slot *models.ScheduleSlot) error {
	f.nextID++
	slot.ID = f.nextID
	cp := *slot
	f.slots[slot.ID] = &cp
	return nil
}

func (f *fakeScheduleRepo) Update(_ context.Context, slot *models.ScheduleSlot) error {
	existing, ok := f.slots[slot.ID]
	if !ok {
		return sql.ErrNoRows
	}
	existing.Weekday = slot.Weekday
	existing.StartTime = slot.StartTime
	existing.EndTime = slot.EndTime
	existing.Remarks = slot.Remarks
	return nil
}

func (f *fakeScheduleRepo) Deactivate(_ context.Context, id int64) error {
	s, ok := f.slots[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Active = false
	return nil
}

func newScheduleFixture() (*ScheduleService, *fakeScheduleRepo) {
	repo := newFakeScheduleRepo()
	courses := &fakeCourseReader{courses: map[int64]*models.Course{
		1: {ID: 1, Name: "German B1", Status: models.CourseStatusRunning},
	}}
	return NewScheduleService(repo, courses, nil, nil), repo
}

func TestScheduleServiceCreate(t *testing.T) {
	svc, _ := newScheduleFixture()

	slot, err := svc.Create(context.Background(), ScheduleSlotRequest{
		CourseID: 1, Weekday: "Monday", StartTime: "10:00", EndTime: "12:00",
	})
	require.NoError(t, err)
	require.NotZero(t, slot.ID)
	require.True(t, slot.Active)
}

func TestScheduleServiceCreateBoundaryCollision(t *testing.T) {
	svc, _ := newScheduleFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, ScheduleSlotRequest{CourseID: 1, Weekday: "Monday", StartTime: "10:00", EndTime: "12:00"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, ScheduleSlotRequest{CourseID: 1, Weekday: "Monday", StartTime: "12:00", EndTime: "13:00"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, ScheduleSlotRequest{CourseID: 1, Weekday: "Monday", StartTime: "12:01", EndTime: "13:00"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, ScheduleSlotRequest{CourseID: 1, Weekday: "Tuesday", StartTime: "10:00", EndTime: "12:00"})
	require.NoError(t, err)
}

func TestScheduleServiceCreateInvalidTimeRange(t *testing.T) {
	svc, _ := newScheduleFixture()

	_, err := svc.Create(context.Background(), ScheduleSlotRequest{
		CourseID: 1, Weekday: "Monday", StartTime: "12:00", EndTime: "12:00",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceCreateUnknownWeekday(t *testing.T) {
	svc, _ := newScheduleFixture()

	_, err := svc.Create(context.Background(), ScheduleSlotRequest{
		CourseID: 1, Weekday: "Funday", StartTime: "10:00", EndTime: "12:00",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceUpdateSkipsCollisionCheck(t *testing.T) {
	svc, _ := newScheduleFixture()
	ctx := context.Background()

	first, err := svc.Create(ctx, ScheduleSlotRequest{CourseID: 1, Weekday: "Monday", StartTime: "10:00", EndTime: "12:00"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, ScheduleSlotRequest{CourseID: 1, Weekday: "Monday", StartTime: "14:00", EndTime: "16:00"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, second.ID, ScheduleSlotRequest{
		CourseID: 1, Weekday: "Monday", StartTime: first.StartTime, EndTime: first.EndTime,
	})
	require.NoError(t, err)
	require.Equal(t, first.StartTime, updated.StartTime)
	require.Equal(t, first.EndTime, updated.EndTime)
}

func TestScheduleServiceDelete(t *testing.T) {
	svc, repo := newScheduleFixture()
	ctx := context.Background()

	slot, err := svc.Create(ctx, ScheduleSlotRequest{CourseID: 1, Weekday: "Monday", StartTime: "10:00", EndTime: "12:00"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, slot.ID))
	require.False(t, repo.slots[slot.ID].Active)

	err = svc.Delete(ctx, 999)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
