package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
	"github.com/bildungsinstitut/kursverwaltung/internal/repository"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
)

type enrollmentRepository interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	FindDetailByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.EnrollmentDetail, error)
	Enroll(ctx context.Context, enrollment *models.Enrollment) error
	Withdraw(ctx context.Context, studentID, courseID int64, when time.Time) (*models.Enrollment, error)
	UpdateStatus(ctx context.Context, studentID, courseID int64, status models.EnrollmentStatus, withdrawalDate *time.Time) (*models.Enrollment, error)
	StudentsInCourse(ctx context.Context, courseID int64) ([]models.Student, error)
	CoursesForStudent(ctx context.Context, studentID int64) ([]models.Course, error)
	ExistsRoster(ctx context.Context, studentID, courseID int64) (bool, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type courseCacheInvalidator interface {
	InvalidateAvailable(ctx context.Context)
}

// EnrollmentRequest binds a student to a course.
type EnrollmentRequest struct {
	StudentID int64 `json:"student_id" validate:"required,gt=0"`
	CourseID  int64 `json:"course_id" validate:"required,gt=0"`
}

// EnrollmentStatusRequest changes the status of an enrollment.
type EnrollmentStatusRequest struct {
	Status     string  `json:"status" validate:"required,oneof=registered active completed withdrawn"`
	FinalGrade *string `json:"final_grade"`
	Remarks    *string `json:"remarks"`
}

// EnrollmentService orchestrates the enrollment workflow. The capacity check
// and the counter increment happen atomically inside the repository; this
// layer resolves references, enforces entity state and maps storage errors.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentReader
	courses   courseReader
	cache     courseCacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, courses courseReader, cache courseCacheInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, courses: courses, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Enroll registers a student to a course. Exactly one enrollment row may
// ever exist per (student, course) pair; a withdrawn row still blocks
// re-enrollment.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student is deactivated")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Status == models.CourseStatusCompleted || course.Status == models.CourseStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course no longer accepts enrollments")
	}
	enrollment := &models.Enrollment{
		StudentID:        req.StudentID,
		CourseID:         req.CourseID,
		RegistrationDate: time.Now().UTC(),
		Status:           models.EnrollmentStatusRegistered,
	}
	if err := s.repo.Enroll(ctx, enrollment); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEnrollment):
			s.recordEnrollment("enroll", "duplicate")
			return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in course")
		case errors.Is(err, repository.ErrCourseFull):
			s.recordEnrollment("enroll", "capacity_exceeded")
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "")
		default:
			s.recordEnrollment("enroll", "error")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
		}
	}
	s.recordEnrollment("enroll", "success")
	if s.cache != nil {
		s.cache.InvalidateAvailable(ctx)
	}
	s.logger.Info("student enrolled",
		zap.Int64("student_id", req.StudentID),
		zap.Int64("course_id", req.CourseID),
		zap.Int64("enrollment_id", enrollment.ID))
	return s.Get(ctx, req.StudentID, req.CourseID)
}

// Withdraw marks an enrollment withdrawn and frees the seat. Withdrawing an
// already withdrawn or completed enrollment fails.
func (s *EnrollmentService) Withdraw(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !enrollment.Status.Roster() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is not active")
	}
	withdrawn, err := s.repo.Withdraw(ctx, studentID, courseID, time.Now().UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		s.recordEnrollment("withdraw", "error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw enrollment")
	}
	s.recordEnrollment("withdraw", "success")
	if s.cache != nil {
		s.cache.InvalidateAvailable(ctx)
	}
	s.logger.Info("student withdrawn",
		zap.Int64("student_id", studentID),
		zap.Int64("course_id", courseID))
	return withdrawn, nil
}

// UpdateStatus overwrites the enrollment status without touching the
// participant counter. Any status value is accepted; setting completed or
// withdrawn also stamps the withdrawal date. Callers that need the seat
// released must use Withdraw.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, studentID, courseID int64, req EnrollmentStatusRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	status := models.EnrollmentStatus(req.Status)
	var withdrawalDate *time.Time
	if status == models.EnrollmentStatusCompleted || status == models.EnrollmentStatusWithdrawn {
		now := time.Now().UTC()
		withdrawalDate = &now
	}
	enrollment, err := s.repo.UpdateStatus(ctx, studentID, courseID, status, withdrawalDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	return enrollment, nil
}

// Get returns the enrollment of a student in a course, with names resolved.
func (s *EnrollmentService) Get(ctx context.Context, studentID, courseID int64) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// IsEnrolled reports whether a student is on the current roster of a course.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error) {
	ok, err := s.repo.ExistsRoster(ctx, studentID, courseID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	return ok, nil
}

// StudentsInCourse returns the current roster of a course.
func (s *EnrollmentService) StudentsInCourse(ctx context.Context, courseID int64) ([]models.Student, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	students, err := s.repo.StudentsInCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course roster")
	}
	return students, nil
}

// CoursesForStudent returns the courses a student is currently enrolled in.
func (s *EnrollmentService) CoursesForStudent(ctx context.Context, studentID int64) ([]models.Course, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	courses, err := s.repo.CoursesForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student courses")
	}
	return courses, nil
}

func (s *EnrollmentService) recordEnrollment(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordEnrollment(operation, outcome)
	}
}
