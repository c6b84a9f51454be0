package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
)

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, name, course_type_id, room_id, trainer_id, start_date, end_date,
        max_participants, current_participants, status, description, created_at, updated_at`

const courseDetailSelect = `SELECT c.id, c.name, c.course_type_id, c.room_id, c.trainer_id, c.start_date, c.end_date,
        c.max_participants, c.current_participants, c.status, c.description, c.created_at, c.updated_at,
        ct.code AS course_type_code, ct.name AS course_type_name, r.name AS room_name,
        t.first_name || ' ' || t.last_name AS trainer_name
        FROM courses c
        JOIN course_types ct ON ct.id = c.course_type_id
        JOIN rooms r ON r.id = c.room_id
        JOIN trainers t ON t.id = c.trainer_id`

// List returns courses filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.TrainerID != 0 {
		conditions = append(conditions, fmt.Sprintf("c.trainer_id = $%d", len(args)+1))
		args = append(args, filter.TrainerID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":       "c.name",
		"start_date": "c.start_date",
		"status":     "c.status",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.start_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT %d OFFSET %d", courseDetailSelect, clause, orderBy, order, size, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM courses c" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindDetailByID returns a course with resolved reference names.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id int64) (*models.CourseDetail, error) {
	query := courseDetailSelect + " WHERE c.id = $1"
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListCurrent returns planned and running courses.
func (r *CourseRepository) ListCurrent(ctx context.Context) ([]models.CourseDetail, error) {
	query := courseDetailSelect + " WHERE c.status IN ($1, $2) ORDER BY c.start_date"
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, models.CourseStatusPlanned, models.CourseStatusRunning); err != nil {
		return nil, fmt.Errorf("list current courses: %w", err)
	}
	return courses, nil
}

// ListAvailable returns planned courses that still have open seats.
func (r *CourseRepository) ListAvailable(ctx context.Context) ([]models.CourseDetail, error) {
	query := courseDetailSelect + " WHERE c.current_participants < c.max_participants AND c.status = $1 ORDER BY c.start_date"
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, models.CourseStatusPlanned); err != nil {
		return nil, fmt.Errorf("list available courses: %w", err)
	}
	return courses, nil
}

// ListByStartDateRange returns courses starting within [from, to].
func (r *CourseRepository) ListByStartDateRange(ctx context.Context, from, to time.Time) ([]models.CourseDetail, error) {
	query := courseDetailSelect + " WHERE c.start_date BETWEEN $1 AND $2 ORDER BY c.start_date"
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, from, to); err != nil {
		return nil, fmt.Errorf("list courses by start date: %w", err)
	}
	return courses, nil
}

// Create persists a new course record.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO courses (name, course_type_id, room_id, trainer_id, start_date, end_date,
        max_participants, current_participants, status, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING %s`, courseColumns)
	if err := r.db.GetContext(ctx, course, query,
		course.Name, course.CourseTypeID, course.RoomID, course.TrainerID, course.StartDate, course.EndDate,
		course.MaxParticipants, course.CurrentParticipants, course.Status, course.Description,
		course.CreatedAt, course.UpdatedAt); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a course. The participant counter
// is owned by the enrollment paths and left untouched here.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	query := fmt.Sprintf(`UPDATE courses SET name = $2, course_type_id = $3, room_id = $4, trainer_id = $5,
        start_date = $6, end_date = $7, max_participants = $8, status = $9, description = $10, updated_at = $11
        WHERE id = $1 RETURNING %s`, courseColumns)
	if err := r.db.GetContext(ctx, course, query,
		course.ID, course.Name, course.CourseTypeID, course.RoomID, course.TrainerID,
		course.StartDate, course.EndDate, course.MaxParticipants, course.Status, course.Description,
		time.Now().UTC()); err != nil {
		return err
	}
	return nil
}

// UpdateStatus overwrites the course status unconditionally.
func (r *CourseRepository) UpdateStatus(ctx context.Context, id int64, status models.CourseStatus) (*models.Course, error) {
	query := fmt.Sprintf(`UPDATE courses SET status = $2, updated_at = $3 WHERE id = $1 RETURNING %s`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id, status, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &course, nil
}

// Delete cancels a course in place. Courses referenced by enrollments are
// never physically removed; cancellation is the tombstone.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	query := `UPDATE courses SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.CourseStatusCancelled, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cancel course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel course: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
