package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
)

// Sentinel errors surfaced by the transactional enrollment paths. The service
// layer maps these onto the caller-visible error taxonomy.
var (
	ErrDuplicateEnrollment = errors.New("enrollment already exists for student and course")
	ErrCourseFull          = errors.New("course is at maximum capacity")
)

// EnrollmentRepository handles persistence of enrollments and keeps the
// denormalised participant counter on courses consistent with enrollment
// rows. Counter mutations always run in the same transaction as the
// enrollment write.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, student_id, course_id, registration_date, withdrawal_date, status, final_grade, remarks, created_at, updated_at`

// FindByStudentAndCourse returns the enrollment row for the pair, regardless
// of status.
func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE student_id = $1 AND course_id = $2`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByStudentAndCourse returns the enrollment with contextual info.
func (r *EnrollmentRepository) FindDetailByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.registration_date, e.withdrawal_date, e.status,
        e.final_grade, e.remarks, e.created_at, e.updated_at,
        s.first_name || ' ' || s.last_name AS student_name, c.name AS course_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1 AND e.course_id = $2`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Enroll creates the enrollment row and increments the course participant
// counter as one atomically-visible unit. The counter update is a
// compare-and-swap guarded by the capacity bound, so two concurrent calls
// can never push a course past max_participants.
func (r *EnrollmentRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enroll: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	var existing int64
	err = tx.GetContext(ctx, &existing,
		`SELECT id FROM enrollments WHERE student_id = $1 AND course_id = $2`,
		enrollment.StudentID, enrollment.CourseID)
	if err == nil {
		return ErrDuplicateEnrollment
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check existing enrollment: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE courses SET current_participants = current_participants + 1, updated_at = $2
         WHERE id = $1 AND current_participants < max_participants`,
		enrollment.CourseID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("increment course participants: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment course participants: %w", err)
	}
	if affected == 0 {
		return ErrCourseFull
	}

	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO enrollments (student_id, course_id, registration_date, withdrawal_date, status, final_grade, remarks, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING %s`, enrollmentColumns)
	if err := tx.GetContext(ctx, enrollment, query,
		enrollment.StudentID, enrollment.CourseID, enrollment.RegistrationDate, enrollment.WithdrawalDate,
		enrollment.Status, enrollment.FinalGrade, enrollment.Remarks, enrollment.CreatedAt, enrollment.UpdatedAt); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enroll: %w", err)
	}
	commit = true
	return nil
}

// Withdraw marks the enrollment withdrawn and decrements the course counter
// in the same transaction. The decrement is clamped at zero; a counter that
// already drifted to zero is left alone rather than driven negative.
func (r *EnrollmentRepository) Withdraw(ctx context.Context, studentID, courseID int64, when time.Time) (*models.Enrollment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin withdraw: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`UPDATE enrollments SET status = $3, withdrawal_date = $4, updated_at = $5
        WHERE student_id = $1 AND course_id = $2 RETURNING %s`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := tx.GetContext(ctx, &enrollment, query,
		studentID, courseID, models.EnrollmentStatusWithdrawn, when, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("withdraw enrollment: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE courses SET current_participants = current_participants - 1, updated_at = $2
         WHERE id = $1 AND current_participants > 0`,
		courseID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("decrement course participants: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit withdraw: %w", err)
	}
	commit = true
	return &enrollment, nil
}

// UpdateStatus overwrites the enrollment status without touching the course
// counter. Callers that need counter-consistent removal use Withdraw.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, studentID, courseID int64, status models.EnrollmentStatus, withdrawalDate *time.Time) (*models.Enrollment, error) {
	query := fmt.Sprintf(`UPDATE enrollments SET status = $3, withdrawal_date = COALESCE($4, withdrawal_date), updated_at = $5
        WHERE student_id = $1 AND course_id = $2 RETURNING %s`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID, status, withdrawalDate, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// StudentsInCourse returns students whose enrollment counts toward the
// current roster (registered or active).
func (r *EnrollmentRepository) StudentsInCourse(ctx context.Context, courseID int64) ([]models.Student, error) {
	const query = `SELECT s.id, s.first_name, s.last_name, s.email, s.phone, s.birth_date, s.gender,
        s.nationality, s.native_language, s.registration_date, s.active, s.created_at, s.updated_at
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        WHERE e.course_id = $1 AND e.status IN ($2, $3)
        ORDER BY s.last_name, s.first_name`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, courseID,
		models.EnrollmentStatusRegistered, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list course roster: %w", err)
	}
	return students, nil
}

// CoursesForStudent returns the courses a student is currently enrolled in.
func (r *EnrollmentRepository) CoursesForStudent(ctx context.Context, studentID int64) ([]models.Course, error) {
	const query = `SELECT c.id, c.name, c.course_type_id, c.room_id, c.trainer_id, c.start_date, c.end_date,
        c.max_participants, c.current_participants, c.status, c.description, c.created_at, c.updated_at
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1 AND e.status IN ($2, $3)
        ORDER BY c.start_date`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID,
		models.EnrollmentStatusRegistered, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	return courses, nil
}

// ExistsRoster reports whether a roster-counting enrollment exists for the
// pair.
func (r *EnrollmentRepository) ExistsRoster(ctx context.Context, studentID, courseID int64) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status IN ($3, $4) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID,
		models.EnrollmentStatusRegistered, models.EnrollmentStatusActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check roster enrollment: %w", err)
	}
	return true, nil
}
