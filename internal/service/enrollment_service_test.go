package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
	"github.com/bildungsinstitut/kursverwaltung/internal/repository"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
)

type pair struct {
	studentID int64
	courseID  int64
}

type fakeEnrollmentRepo struct {
	rows     map[pair]*models.Enrollment
	counts   map[int64]int
	capacity map[int64]int
	nextID   int64
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{
		rows:     map[pair]*models.Enrollment{},
		counts:   map[int64]int{},
		capacity: map[int64]int{},
	}
}

func (f *fakeEnrollmentRepo) FindByStudentAndCourse(_ context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	if e, ok := f.rows[pair{studentID, courseID}]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentRepo) FindDetailByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.EnrollmentDetail, error) {
	e, err := f.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	return &models.EnrollmentDetail{Enrollment: *e, StudentName: "Test Student", CourseName: "Test Course"}, nil
}

func (f *fakeEnrollmentRepo) Enroll(_ context.Context, enrollment *models.Enrollment) error {
	key := pair{enrollment.StudentID, enrollment.CourseID}
	if _, ok := f.rows[key]; ok {
		return repository.ErrDuplicateEnrollment
	}
	if f.counts[enrollment.CourseID] >= f.capacity[enrollment.CourseID] {
		return repository.ErrCourseFull
	}
	f.counts[enrollment.CourseID]++
	f.nextID++
	enrollment.ID = f.nextID
	cp := *enrollment
	f.rows[key] = &cp
	return nil
}

func (f *fakeEnrollmentRepo) Withdraw(_ context.Context, studentID, courseID int64, when time.Time) (*models.Enrollment, error) {
	e, ok := f.rows[pair{studentID, courseID}]
	if !ok {
		return nil, sql.ErrNoRows
	}
	e.Status = models.EnrollmentStatusWithdrawn
	e.WithdrawalDate = &when
	if f.counts[courseID] > 0 {
		f.counts[courseID]--
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEnrollmentRepo) UpdateStatus(_ context.Context, studentID, courseID int64, status models.EnrollmentStatus, withdrawalDate *time.Time) (*models.Enrollment, error) {
	e, ok := f.rows[pair{studentID, courseID}]
	if !ok {
		return nil, sql.ErrNoRows
	}
	e.Status = status
	if withdrawalDate != nil {
		e.WithdrawalDate = withdrawalDate
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEnrollmentRepo) StudentsInCourse(_ context.Context, courseID int64) ([]models.Student, error) {
	var students []models.Student
	for key, e := range f.rows {
		if key.courseID == courseID && e.Status.Roster() {
			students = append(students, models.Student{ID: key.studentID})
		}
	}
	return students, nil
}

func (f *fakeEnrollmentRepo) CoursesForStudent(_ context.Context, studentID int64) ([]models.Course, error) {
	var courses []models.Course
	for key, e := range f.rows {
		if key.studentID == studentID && e.Status.Roster() {
			courses = append(courses, models.Course{ID: key.courseID})
		}
	}
	return courses, nil
}

func (f *fakeEnrollmentRepo) ExistsRoster(_ context.Context, studentID, courseID int64) (bool, error) {
	e, ok := f.rows[pair{studentID, courseID}]
	return ok && e.Status.Roster(), nil
}

type fakeStudentReader struct {
	students map[int64]*models.Student
}

func (f *fakeStudentReader) FindByID(_ context.Context, id int64) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type fakeCourseReader struct {
	courses map[int64]*models.Course
}

func (f *fakeCourseReader) FindByID(_ context.Context, id int64) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func newEnrollmentFixture(capacity int) (*EnrollmentService, *fakeEnrollmentRepo) {
	repo := newFakeEnrollmentRepo()
	repo.capacity[1] = capacity
	students := &fakeStudentReader{students: map[int64]*models.Student{
		10: {ID: 10, FirstName: "Anna", LastName: "Meier", Active: true},
		11: {ID: 11, FirstName: "Ben", LastName: "Keller", Active: true},
		12: {ID: 12, FirstName: "Clara", LastName: "Weber", Active: true},
		13: {ID: 13, FirstName: "Dora", LastName: "Frei", Active: false},
	}}
	courses := &fakeCourseReader{courses: map[int64]*models.Course{
		1: {ID: 1, Name: "German B1", MaxParticipants: capacity, Status: models.CourseStatusRunning},
		2: {ID: 2, Name: "French A2", MaxParticipants: capacity, Status: models.CourseStatusCompleted},
	}}
	svc := NewEnrollmentService(repo, students, courses, nil, nil, nil, nil)
	return svc, repo
}

func TestEnrollmentServiceEnrollCapacity(t *testing.T) {
	svc, repo := newEnrollmentFixture(2)
	ctx := context.Background()

	first, err := svc.Enroll(ctx, EnrollmentRequest{StudentID: 10, CourseID: 1})
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusRegistered, first.Status)

	_, err = svc.Enroll(ctx, EnrollmentRequest{StudentID: 11, CourseID: 1})
	require.NoError(t, err)
	require.Equal(t, 2, repo.counts[1])

	_, err = svc.Enroll(ctx, EnrollmentRequest{StudentID: 12, CourseID: 1})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceWithdrawFreesSeat(t *testing.T) {
	svc, repo := newEnrollmentFixture(1)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, EnrollmentRequest{StudentID: 10, CourseID: 1})
	require.NoError(t, err)

	withdrawn, err := svc.Withdraw(ctx, 10, 1)
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusWithdrawn, withdrawn.Status)
	require.NotNil(t, withdrawn.WithdrawalDate)
	require.Equal(t, 0, repo.counts[1])

	_, err = svc.Enroll(ctx, EnrollmentRequest{StudentID: 11, CourseID: 1})
	require.NoError(t, err)
}

func TestEnrollmentServiceReEnrollAfterWithdrawalRejected(t *testing.T) {
	svc, _ := newEnrollmentFixture(2)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, EnrollmentRequest{StudentID: 10, CourseID: 1})
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, 10, 1)
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, EnrollmentRequest{StudentID: 10, CourseID: 1})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollDeactivatedStudent(t *testing.T) {
	svc, _ := newEnrollmentFixture(2)

	_, err := svc.Enroll(context.Background(), EnrollmentRequest{StudentID: 13, CourseID: 1})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollCompletedCourse(t *testing.T) {
	svc, _ := newEnrollmentFixture(2)

	_, err := svc.Enroll(context.Background(), EnrollmentRequest{StudentID: 10, CourseID: 2})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceWithdrawInactiveEnrollment(t *testing.T) {
	svc, _ := newEnrollmentFixture(2)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, EnrollmentRequest{StudentID: 10, CourseID: 1})
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, 10, 1)
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, 10, 1)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceUpdateStatusCompletedSetsWithdrawalDate(t *testing.T) {
	svc, _ := newEnrollmentFixture(2)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, EnrollmentRequest{StudentID: 10, CourseID: 1})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, 10, 1, EnrollmentStatusRequest{Status: "active"})
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusActive, updated.Status)
	require.Nil(t, updated.WithdrawalDate)

	updated, err = svc.UpdateStatus(ctx, 10, 1, EnrollmentStatusRequest{Status: "completed"})
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusCompleted, updated.Status)
	require.NotNil(t, updated.WithdrawalDate)
}

func TestEnrollmentServiceUpdateStatusWithdrawnKeepsCounter(t *testing.T) {
	svc, repo := newEnrollmentFixture(2)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, EnrollmentRequest{StudentID: 10, CourseID: 1})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, 10, 1, EnrollmentStatusRequest{Status: "withdrawn"})
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusWithdrawn, updated.Status)
	require.NotNil(t, updated.WithdrawalDate)

	// the seat stays taken; only Withdraw releases it
	require.Equal(t, 1, repo.counts[1])
}

func TestEnrollmentServiceIsEnrolled(t *testing.T) {
	svc, _ := newEnrollmentFixture(2)
	ctx := context.Background()

	enrolled, err := svc.IsEnrolled(ctx, 10, 1)
	require.NoError(t, err)
	require.False(t, enrolled)

	_, err = svc.Enroll(ctx, EnrollmentRequest{StudentID: 10, CourseID: 1})
	require.NoError(t, err)

	enrolled, err = svc.IsEnrolled(ctx, 10, 1)
	require.NoError(t, err)
	require.True(t, enrolled)
}
