package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
)

type fakeDepartmentRepo struct {
	departments map[int64]*models.Department
	nextID      int64
}

func (f *fakeDepartmentRepo) List(_ context.Context) ([]models.Department, error) {
	var departments []models.Department
	for _, d := range f.departments {
		departments = append(departments, *d)
	}
	return departments, nil
}

func (f *fakeDepartmentRepo) FindByID(_ context.Context, id int64) (*models.Department, error) {
	if d, ok := f.departments[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDepartmentRepo) Create(_ context.Context, department *models.Department) error {
	f.nextID++
	department.ID = f.nextID
	cp := *department
	f.departments[department.ID] = &cp
	return nil
}

func (f *fakeDepartmentRepo) Update(_ context.Context, department *models.Department) error {
	if _, ok := f.departments[department.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *department
	f.departments[department.ID] = &cp
	return nil
}

func (f *fakeDepartmentRepo) Deactivate(_ context.Context, id int64) error {
	d, ok := f.departments[id]
	if !ok {
		return sql.ErrNoRows
	}
	d.Active = false
	return nil
}

type fakeRoomRepo struct {
	rooms  map[int64]*models.Room
	nextID int64
}

func (f *fakeRoomRepo) List(_ context.Context) ([]models.Room, error) {
	var rooms []models.Room
	for _, r := range f.rooms {
		rooms = append(rooms, *r)
	}
	return rooms, nil
}

func (f *fakeRoomRepo) FindByID(_ context.Context, id int64) (*models.Room, error) {
	if r, ok := f.rooms[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRoomRepo) Create(_ context.Context, room *models.Room) error {
	f.nextID++
	room.ID = f.nextID
	cp := *room
	f.rooms[room.ID] = &cp
	return nil
}

func (f *fakeRoomRepo) Update(_ context.Context, room *models.Room) error {
	if _, ok := f.rooms[room.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *room
	f.rooms[room.ID] = &cp
	return nil
}

func (f *fakeRoomRepo) Deactivate(_ context.Context, id int64) error {
	r, ok := f.rooms[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Active = false
	return nil
}

type fakeCourseTypeRepo struct {
	courseTypes map[int64]*models.CourseType
	nextID      int64
}

func (f *fakeCourseTypeRepo) List(_ context.Context) ([]models.CourseType, error) {
	var courseTypes []models.CourseType
	for _, ct := range f.courseTypes {
		courseTypes = append(courseTypes, *ct)
	}
	return courseTypes, nil
}

func (f *fakeCourseTypeRepo) FindByID(_ context.Context, id int64) (*models.CourseType, error) {
	if ct, ok := f.courseTypes[id]; ok {
		cp := *ct
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseTypeRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	for _, ct := range f.courseTypes {
		if ct.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCourseTypeRepo) Create(_ context.Context, courseType *models.CourseType) error {
	f.nextID++
	courseType.ID = f.nextID
	cp := *courseType
	f.courseTypes[courseType.ID] = &cp
	return nil
}

func (f *fakeCourseTypeRepo) Update(_ context.Context, courseType *models.CourseType) error {
	if _, ok := f.courseTypes[courseType.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *courseType
	f.courseTypes[courseType.ID] = &cp
	return nil
}

func (f *fakeCourseTypeRepo) Deactivate(_ context.Context, id int64) error {
	ct, ok := f.courseTypes[id]
	if !ok {
		return sql.ErrNoRows
	}
	ct.Active = false
	return nil
}

func newDirectoryFixture() *DirectoryService {
	return NewDirectoryService(
		&fakeDepartmentRepo{departments: map[int64]*models.Department{}},
		&fakeRoomRepo{rooms: map[int64]*models.Room{}},
		&fakeCourseTypeRepo{courseTypes: map[int64]*models.CourseType{}},
		nil, nil)
}

func TestDirectoryServiceCourseTypeCodeConflict(t *testing.T) {
	svc := newDirectoryFixture()
	ctx := context.Background()

	first, err := svc.CreateCourseType(ctx, CourseTypeRequest{Code: "B1", Name: "German B1"})
	require.NoError(t, err)
	require.True(t, first.Active)

	_, err = svc.CreateCourseType(ctx, CourseTypeRequest{Code: "B1", Name: "Another B1"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	second, err := svc.CreateCourseType(ctx, CourseTypeRequest{Code: "B2", Name: "German B2"})
	require.NoError(t, err)

	_, err = svc.UpdateCourseType(ctx, second.ID, CourseTypeRequest{Code: "B1", Name: "German B2"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	updated, err := svc.UpdateCourseType(ctx, second.ID, CourseTypeRequest{Code: "B2", Name: "German B2 Intensive"})
	require.NoError(t, err)
	require.Equal(t, "German B2 Intensive", updated.Name)
}

func TestDirectoryServiceRoomValidation(t *testing.T) {
	svc := newDirectoryFixture()
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, RoomRequest{Name: "Room 101", Capacity: 0})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	room, err := svc.CreateRoom(ctx, RoomRequest{Name: "Room 101", Capacity: 20})
	require.NoError(t, err)
	require.True(t, room.Active)
}

func TestDirectoryServiceDepartmentLifecycle(t *testing.T) {
	svc := newDirectoryFixture()
	ctx := context.Background()

	department, err := svc.CreateDepartment(ctx, DepartmentRequest{Name: "Languages"})
	require.NoError(t, err)

	loaded, err := svc.GetDepartment(ctx, department.ID)
	require.NoError(t, err)
	require.Equal(t, "Languages", loaded.Name)

	require.NoError(t, svc.DeleteDepartment(ctx, department.ID))

	err = svc.DeleteDepartment(ctx, 999)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
