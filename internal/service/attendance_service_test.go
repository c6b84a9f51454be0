package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
)

type attendanceKey struct {
	studentID int64
	courseID  int64
	date      string
}

type fakeAttendanceRepo struct {
	records map[attendanceKey]*models.AttendanceRecord
	stats   map[pair]*models.AttendanceStatistics
	nextID  int64
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{
		records: map[attendanceKey]*models.AttendanceRecord{},
		stats:   map[pair]*models.AttendanceStatistics{},
	}
}

func attKey(r *models.AttendanceRecord) attendanceKey {
	return attendanceKey{r.StudentID, r.CourseID, r.Date.Format("2006-01-02")}
}

func (f *fakeAttendanceRepo) List(_ context.Context) ([]models.AttendanceDetail, error) {
	details := make([]models.AttendanceDetail, 0, len(f.records))
	for _, r := range f.records {
		details = append(details, models.AttendanceDetail{AttendanceRecord: *r})
	}
	return details, nil
}

func (f *fakeAttendanceRepo) FindByID(_ context.Context, id int64) (*models.AttendanceDetail, error) {
	for _, r := range f.records {
		if r.ID == id {
			return &models.AttendanceDetail{AttendanceRecord: *r}, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAttendanceRepo) ListByCourseAndDate(_ context.Context, courseID int64, date time.Time) ([]models.AttendanceDetail, error) {
	var details []models.AttendanceDetail
	for key, r := range f.records {
		if key.courseID == courseID && key.date == date.Format("2006-01-02") {
			details = append(details, models.AttendanceDetail{AttendanceRecord: *r})
		}
	}
	return details, nil
}

func (f *fakeAttendanceRepo) ListByStudentAndCourse(_ context.Context, studentID, courseID int64) ([]models.AttendanceDetail, error) {
	var details []models.AttendanceDetail
	for key, r := range f.records {
		if key.studentID == studentID && key.courseID == courseID {
			details = append(details, models.AttendanceDetail{AttendanceRecord: *r})
		}
	}
	return details, nil
}

func (f *fakeAttendanceRepo) ListByDateRange(_ context.Context, _, _ time.Time) ([]models.AttendanceDetail, error) {
	return f.List(context.Background())
}

func (f *fakeAttendanceRepo) ListByCourseAndRange(_ context.Context, courseID int64, _, _ time.Time, _ int) ([]models.AttendanceDetail, error) {
	var details []models.AttendanceDetail
	for key, r := range f.records {
		if key.courseID == courseID {
			details = append(details, models.AttendanceDetail{AttendanceRecord: *r, StudentName: "Test Student"})
		}
	}
	return details, nil
}

func (f *fakeAttendanceRepo) Upsert(_ context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	key := attKey(record)
	now := time.Now().UTC()
	if existing, ok := f.records[key]; ok {
		existing.Present = record.Present
		existing.Excused = record.Excused
		existing.Remark = record.Remark
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}
	f.nextID++
	record.ID = f.nextID
	record.RecordedAt = now
	record.UpdatedAt = now
	cp := *record
	f.records[key] = &cp
	return record, nil
}

func (f *fakeAttendanceRepo) Statistics(_ context.Context, studentID, courseID int64) (*models.AttendanceStatistics, error) {
	if stats, ok := f.stats[pair{studentID, courseID}]; ok {
		cp := *stats
		return &cp, nil
	}
	return &models.AttendanceStatistics{}, nil
}

func (f *fakeAttendanceRepo) Delete(_ context.Context, id int64) (int64, error) {
	for key, r := range f.records {
		if r.ID == id {
			delete(f.records, key)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeEnrollmentReader struct {
	rows map[pair]*models.Enrollment
}

func (f *fakeEnrollmentReader) FindByStudentAndCourse(_ context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	if e, ok := f.rows[pair{studentID, courseID}]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func newAttendanceFixture() (*AttendanceService, *fakeAttendanceRepo, *fakeEnrollmentReader) {
	repo := newFakeAttendanceRepo()
	enrollments := &fakeEnrollmentReader{rows: map[pair]*models.Enrollment{
		{10, 1}: {StudentID: 10, CourseID: 1, Status: models.EnrollmentStatusActive},
		{11, 1}: {StudentID: 11, CourseID: 1, Status: models.EnrollmentStatusActive},
		{12, 1}: {StudentID: 12, CourseID: 1, Status: models.EnrollmentStatusActive},
	}}
	students := &fakeStudentReader{students: map[int64]*models.Student{
		10: {ID: 10, FirstName: "Anna", LastName: "Meier", Active: true},
		11: {ID: 11, FirstName: "Ben", LastName: "Keller", Active: true},
		12: {ID: 12, FirstName: "Clara", LastName: "Weber", Active: true},
	}}
	courses := &fakeCourseReader{courses: map[int64]*models.Course{
		1: {ID: 1, Name: "German B1", Status: models.CourseStatusRunning},
	}}
	svc := NewAttendanceService(repo, enrollments, students, courses, nil, nil, 0)
	return svc, repo, enrollments
}

func TestAttendanceServiceRecordOverwritesKeepsRecordedAt(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()
	ctx := context.Background()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	first, err := svc.Record(ctx, AttendanceRequest{StudentID: 10, CourseID: 1, Date: date, Present: false, Excused: true})
	require.NoError(t, err)

	second, err := svc.Record(ctx, AttendanceRequest{StudentID: 10, CourseID: 1, Date: date, Present: true})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.True(t, second.Present)
	require.False(t, second.Excused)
	require.Equal(t, first.RecordedAt, second.RecordedAt)
	require.Len(t, repo.records, 1)
}

func TestAttendanceServiceRecordRequiresEnrollment(t *testing.T) {
	svc, _, enrollments := newAttendanceFixture()
	delete(enrollments.rows, pair{10, 1})

	_, err := svc.Record(context.Background(), AttendanceRequest{
		StudentID: 10, CourseID: 1, Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Present: true,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceRecordWithdrawnStudent(t *testing.T) {
	svc, repo, enrollments := newAttendanceFixture()
	when := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	enrollments.rows[pair{10, 1}].Status = models.EnrollmentStatusWithdrawn
	enrollments.rows[pair{10, 1}].WithdrawalDate = &when

	record, err := svc.Record(context.Background(), AttendanceRequest{
		StudentID: 10, CourseID: 1, Date: when, Present: true,
	})
	require.NoError(t, err)
	require.True(t, record.Present)
	require.Len(t, repo.records, 1)
}

func TestAttendanceServiceRecordUnknownStudent(t *testing.T) {
	svc, _, _ := newAttendanceFixture()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Record(context.Background(), AttendanceRequest{StudentID: 99, CourseID: 1, Date: date, Present: true})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Record(context.Background(), AttendanceRequest{StudentID: 10, CourseID: 99, Date: date, Present: true})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceBulkRecordSkipsFailures(t *testing.T) {
	svc, repo, enrollments := newAttendanceFixture()
	delete(enrollments.rows, pair{12, 1})

	stored, err := svc.BulkRecord(context.Background(), BulkAttendanceRequest{
		CourseID: 1,
		Date:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Entries: []BulkAttendanceEntry{
			{StudentID: 10, Present: true},
			{StudentID: 11, Present: false, Excused: true},
			{StudentID: 12, Present: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Len(t, repo.records, 2)
}

func TestAttendanceServiceBulkRecordUnknownCourse(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	_, err := svc.BulkRecord(context.Background(), BulkAttendanceRequest{
		CourseID: 99,
		Date:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Entries:  []BulkAttendanceEntry{{StudentID: 10, Present: true}},
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceStatisticsRounding(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()
	repo.stats[pair{10, 1}] = &models.AttendanceStatistics{TotalDays: 3, PresentDays: 2, ExcusedDays: 1}

	stats, err := svc.Statistics(context.Background(), 10, 1)
	require.NoError(t, err)
	require.InDelta(t, 66.67, stats.AttendanceRate, 0.001)
}

func TestAttendanceServiceStatisticsEmpty(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	stats, err := svc.Statistics(context.Background(), 10, 1)
	require.NoError(t, err)
	require.Zero(t, stats.AttendanceRate)
	require.Zero(t, stats.TotalDays)
}

func TestAttendanceServiceDeleteMissing(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	err := svc.Delete(context.Background(), 42)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceExportSheet(t *testing.T) {
	svc, _, _ := newAttendanceFixture()
	ctx := context.Background()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Record(ctx, AttendanceRequest{StudentID: 10, CourseID: 1, Date: date, Present: true})
	require.NoError(t, err)

	payload, contentType, err := svc.ExportSheet(ctx, 1, date, date.AddDate(0, 0, 6), ExportFormatCSV)
	require.NoError(t, err)
	require.Equal(t, "text/csv", contentType)
	require.Contains(t, string(payload), "2026-03-02")

	_, _, err = svc.ExportSheet(ctx, 1, date.AddDate(0, 0, 6), date, ExportFormatCSV)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)

	_, _, err = svc.ExportSheet(ctx, 1, date, date, ExportFormat("xlsx"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
