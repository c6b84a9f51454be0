package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
	"github.com/bildungsinstitut/kursverwaltung/pkg/export"
)

type attendanceRepository interface {
	List(ctx context.Context) ([]models.AttendanceDetail, error)
	FindByID(ctx context.Context, id int64) (*models.AttendanceDetail, error)
	ListByCourseAndDate(ctx context.Context, courseID int64, date time.Time) ([]models.AttendanceDetail, error)
	ListByStudentAndCourse(ctx context.Context, studentID, courseID int64) ([]models.AttendanceDetail, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]models.AttendanceDetail, error)
	ListByCourseAndRange(ctx context.Context, courseID int64, from, to time.Time, limit int) ([]models.AttendanceDetail, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	Statistics(ctx context.Context, studentID, courseID int64) (*models.AttendanceStatistics, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type enrollmentReader interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
}

// AttendanceRequest records one student's presence for one date.
type AttendanceRequest struct {
	StudentID int64     `json:"student_id" validate:"required,gt=0"`
	CourseID  int64     `json:"course_id" validate:"required,gt=0"`
	Date      time.Time `json:"date" validate:"required"`
	Present   bool      `json:"present"`
	Excused   bool      `json:"excused"`
	Remark    *string   `json:"remark"`
}

// BulkAttendanceRequest records attendance for a whole course session.
type BulkAttendanceRequest struct {
	CourseID int64                 `json:"course_id" validate:"required,gt=0"`
	Date     time.Time             `json:"date" validate:"required"`
	Entries  []BulkAttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// BulkAttendanceEntry is one roster line of a bulk request.
type BulkAttendanceEntry struct {
	StudentID int64   `json:"student_id" validate:"required,gt=0"`
	Present   bool    `json:"present"`
	Excused   bool    `json:"excused"`
	Remark    *string `json:"remark"`
}

// ExportFormat selects the attendance sheet rendering.
type ExportFormat string

// Supported export formats.
const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// AttendanceService manages per-date presence records and aggregates.
type AttendanceService struct {
	repo        attendanceRepository
	enrollments enrollmentReader
	students    studentReader
	courses     courseReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
	exportRows  int
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, enrollments enrollmentReader, students studentReader, courses courseReader, validate *validator.Validate, logger *zap.Logger, exportRows int) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if exportRows <= 0 {
		exportRows = 5000
	}
	return &AttendanceService{
		repo:        repo,
		enrollments: enrollments,
		students:    students,
		courses:     courses,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
		exportRows:  exportRows,
	}
}

// Record upserts a single attendance entry. Recording the same
// (student, course, date) again overwrites the previous flags; the original
// recording timestamp is kept. The student must have an enrollment row in
// the course, in any status, so withdrawn students keep a correctable
// history.
func (s *AttendanceService) Record(ctx context.Context, req AttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.checkEnrollment(ctx, req.StudentID, req.CourseID); err != nil {
		return nil, err
	}
	record := &models.AttendanceRecord{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Date:      req.Date,
		Present:   req.Present,
		Excused:   req.Excused,
		Remark:    req.Remark,
	}
	stored, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return stored, nil
}

// BulkRecord records attendance for several students of one course session.
// Entries that fail are logged and skipped; the returned slice holds only
// the records that were stored.
func (s *AttendanceService) BulkRecord(ctx context.Context, req BulkAttendanceRequest) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk attendance payload")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	stored := make([]models.AttendanceRecord, 0, len(req.Entries))
	for _, entry := range req.Entries {
		record, err := s.Record(ctx, AttendanceRequest{
			StudentID: entry.StudentID,
			CourseID:  req.CourseID,
			Date:      req.Date,
			Present:   entry.Present,
			Excused:   entry.Excused,
			Remark:    entry.Remark,
		})
		if err != nil {
			s.logger.Warn("bulk attendance entry skipped",
				zap.Int64("student_id", entry.StudentID),
				zap.Int64("course_id", req.CourseID),
				zap.Time("date", req.Date),
				zap.Error(err))
			continue
		}
		stored = append(stored, *record)
	}
	return stored, nil
}

// List returns all attendance records with names resolved.
func (s *AttendanceService) List(ctx context.Context) ([]models.AttendanceDetail, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// Get returns one attendance record with names resolved.
func (s *AttendanceService) Get(ctx context.Context, id int64) (*models.AttendanceDetail, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	return record, nil
}

// ListByCourseAndDate returns one session's records.
func (s *AttendanceService) ListByCourseAndDate(ctx context.Context, courseID int64, date time.Time) ([]models.AttendanceDetail, error) {
	records, err := s.repo.ListByCourseAndDate(ctx, courseID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// ListByStudentAndCourse returns a student's history in one course.
func (s *AttendanceService) ListByStudentAndCourse(ctx context.Context, studentID, courseID int64) ([]models.AttendanceDetail, error) {
	records, err := s.repo.ListByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// ListByDateRange returns all records within [from, to].
func (s *AttendanceService) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.AttendanceDetail, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "range end must not precede range start")
	}
	records, err := s.repo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// Statistics aggregates a student's attendance in one course. The rate is
// the share of present days in percent, rounded to two decimals; a student
// with no records has a rate of 0.0.
func (s *AttendanceService) Statistics(ctx context.Context, studentID, courseID int64) (*models.AttendanceStatistics, error) {
	stats, err := s.repo.Statistics(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	if stats.TotalDays > 0 {
		rate := float64(stats.PresentDays) / float64(stats.TotalDays) * 100
		stats.AttendanceRate = math.Round(rate*100) / 100
	}
	return stats, nil
}

// Delete removes a single attendance record.
func (s *AttendanceService) Delete(ctx context.Context, id int64) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
	}
	return nil
}

// ExportSheet renders a course's attendance within [from, to] as CSV or PDF.
func (s *AttendanceService) ExportSheet(ctx context.Context, courseID int64, from, to time.Time, format ExportFormat) ([]byte, string, error) {
	if to.Before(from) {
		return nil, "", appErrors.Clone(appErrors.ErrInvalidRange, "range end must not precede range start")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	records, err := s.repo.ListByCourseAndRange(ctx, courseID, from, to, s.exportRows)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	dataset := export.Dataset{
		Headers: []string{"Date", "Student", "Present", "Excused", "Remark"},
		Rows:    make([]map[string]string, 0, len(records)),
	}
	for _, record := range records {
		remark := ""
		if record.Remark != nil {
			remark = *record.Remark
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":    record.Date.Format("2006-01-02"),
			"Student": record.StudentName,
			"Present": strconv.FormatBool(record.Present),
			"Excused": strconv.FormatBool(record.Excused),
			"Remark":  remark,
		})
	}
	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		title := fmt.Sprintf("Attendance %s (%s to %s)", course.Name, from.Format("2006-01-02"), to.Format("2006-01-02"))
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *AttendanceService) checkEnrollment(ctx context.Context, studentID, courseID int64) error {
	if _, err := s.enrollments.FindByStudentAndCourse(ctx, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "student is not enrolled in course")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	return nil
}
