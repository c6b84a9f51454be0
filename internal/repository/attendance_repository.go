package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
)

// AttendanceRepository handles persistence of per-date attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceDetailSelect = `SELECT a.id, a.student_id, a.course_id, a.date, a.present, a.excused, a.remark,
        a.recorded_at, a.updated_at,
        s.first_name || ' ' || s.last_name AS student_name, c.name AS course_name
        FROM attendance a
        JOIN students s ON s.id = a.student_id
        JOIN courses c ON c.id = a.course_id`

// List returns all attendance records ordered by date.
func (r *AttendanceRepository) List(ctx context.Context) ([]models.AttendanceDetail, error) {
	query := attendanceDetailSelect + " ORDER BY a.date DESC, a.id"
	var records []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// FindByID returns one attendance record.
func (r *AttendanceRepository) FindByID(ctx context.Context, id int64) (*models.AttendanceDetail, error) {
	query := attendanceDetailSelect + " WHERE a.id = $1"
	var record models.AttendanceDetail
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByCourseAndDate returns the attendance sheet of a course for one day.
func (r *AttendanceRepository) ListByCourseAndDate(ctx context.Context, courseID int64, date time.Time) ([]models.AttendanceDetail, error) {
	query := attendanceDetailSelect + " WHERE a.course_id = $1 AND a.date = $2 ORDER BY student_name"
	var records []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &records, query, courseID, date); err != nil {
		return nil, fmt.Errorf("list attendance by course and date: %w", err)
	}
	return records, nil
}

// ListByStudentAndCourse returns a student's attendance history in a course.
func (r *AttendanceRepository) ListByStudentAndCourse(ctx context.Context, studentID, courseID int64) ([]models.AttendanceDetail, error) {
	query := attendanceDetailSelect + " WHERE a.student_id = $1 AND a.course_id = $2 ORDER BY a.date"
	var records []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &records, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list attendance by student and course: %w", err)
	}
	return records, nil
}

// ListByDateRange returns records with dates within [from, to].
func (r *AttendanceRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.AttendanceDetail, error) {
	query := attendanceDetailSelect + " WHERE a.date BETWEEN $1 AND $2 ORDER BY a.date, a.course_id"
	var records []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &records, query, from, to); err != nil {
		return nil, fmt.Errorf("list attendance by date range: %w", err)
	}
	return records, nil
}

// ListByCourseAndRange returns a course's records within [from, to], used by
// exports.
func (r *AttendanceRepository) ListByCourseAndRange(ctx context.Context, courseID int64, from, to time.Time, limit int) ([]models.AttendanceDetail, error) {
	query := attendanceDetailSelect + " WHERE a.course_id = $1 AND a.date BETWEEN $2 AND $3 ORDER BY a.date, student_name"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	var records []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &records, query, courseID, from, to); err != nil {
		return nil, fmt.Errorf("list attendance for export: %w", err)
	}
	return records, nil
}

// Upsert inserts a record or, when one exists for the same (student, course,
// date) triple, overwrites its mutable fields. recorded_at survives updates.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	if record.RecordedAt.IsZero() {
		record.RecordedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance (student_id, course_id, date, present, excused, remark, recorded_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (student_id, course_id, date)
        DO UPDATE SET present = EXCLUDED.present, excused = EXCLUDED.excused, remark = EXCLUDED.remark, updated_at = EXCLUDED.updated_at
        RETURNING id, student_id, course_id, date, present, excused, remark, recorded_at, updated_at`
	var stored models.AttendanceRecord
	if err := r.db.GetContext(ctx, &stored, query,
		record.StudentID, record.CourseID, record.Date, record.Present, record.Excused,
		record.Remark, record.RecordedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// Statistics aggregates a student's attendance in a course.
func (r *AttendanceRepository) Statistics(ctx context.Context, studentID, courseID int64) (*models.AttendanceStatistics, error) {
	const query = `SELECT COUNT(*) AS total_days,
        COUNT(*) FILTER (WHERE present) AS present_days,
        COUNT(*) FILTER (WHERE NOT present AND excused) AS excused_days,
        COUNT(*) FILTER (WHERE NOT present AND NOT excused) AS unexcused_days
        FROM attendance WHERE student_id = $1 AND course_id = $2`
	var stats models.AttendanceStatistics
	row := r.db.QueryRowxContext(ctx, query, studentID, courseID)
	if err := row.Scan(&stats.TotalDays, &stats.PresentDays, &stats.ExcusedDays, &stats.UnexcusedDays); err != nil {
		return nil, fmt.Errorf("attendance statistics: %w", err)
	}
	return &stats, nil
}

// Delete removes an attendance record by ID.
func (r *AttendanceRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete attendance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete attendance: %w", err)
	}
	return affected, nil
}
