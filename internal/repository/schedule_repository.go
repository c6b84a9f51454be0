package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
)

// ScheduleRepository handles persistence of weekly schedule slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, course_id, weekday, start_time, end_time, remarks, active, created_at`

// ListActive returns all active schedule slots.
func (r *ScheduleRepository) ListActive(ctx context.Context) ([]models.ScheduleSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_slots WHERE active ORDER BY course_id, weekday, start_time`, scheduleColumns)
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}
	return slots, nil
}

// FindByID returns a slot by its ID, active or not.
func (r *ScheduleRepository) FindByID(ctx context.Context, id int64) (*models.ScheduleSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_slots WHERE id = $1`, scheduleColumns)
	var slot models.ScheduleSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListByCourse returns all slots of a course, including inactive ones.
func (r *ScheduleRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.ScheduleSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_slots WHERE course_id = $1 ORDER BY weekday, start_time`, scheduleColumns)
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, courseID); err != nil {
		return nil, fmt.Errorf("list course schedule slots: %w", err)
	}
	return slots, nil
}

// ListActiveByCourseAndWeekday returns the active slots the conflict check
// compares against.
func (r *ScheduleRepository) ListActiveByCourseAndWeekday(ctx context.Context, courseID int64, weekday string) ([]models.ScheduleSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_slots WHERE course_id = $1 AND weekday = $2 AND active ORDER BY start_time`, scheduleColumns)
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, courseID, weekday); err != nil {
		return nil, fmt.Errorf("list sibling schedule slots: %w", err)
	}
	return slots, nil
}

// ListActiveByWeekday returns the active slots of one weekday across courses.
func (r *ScheduleRepository) ListActiveByWeekday(ctx context.Context, weekday string) ([]models.ScheduleSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_slots WHERE weekday = $1 AND active ORDER BY start_time`, scheduleColumns)
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, weekday); err != nil {
		return nil, fmt.Errorf("list schedule slots by weekday: %w", err)
	}
	return slots, nil
}

// Create persists a new slot.
func (r *ScheduleRepository) Create(ctx context.Context, slot *models.ScheduleSlot) error {
	slot.CreatedAt = time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO schedule_slots (course_id, weekday, start_time, end_time, remarks, active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING %s`, scheduleColumns)
	if err := r.db.GetContext(ctx, slot, query,
		slot.CourseID, slot.Weekday, slot.StartTime, slot.EndTime, slot.Remarks, slot.Active, slot.CreatedAt); err != nil {
		return fmt.Errorf("create schedule slot: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a slot.
func (r *ScheduleRepository) Update(ctx context.Context, slot *models.ScheduleSlot) error {
	query := fmt.Sprintf(`UPDATE schedule_slots SET weekday = $2, start_time = $3, end_time = $4, remarks = $5
        WHERE id = $1 RETURNING %s`, scheduleColumns)
	if err := r.db.GetContext(ctx, slot, query,
		slot.ID, slot.Weekday, slot.StartTime, slot.EndTime, slot.Remarks); err != nil {
		return err
	}
	return nil
}

// Deactivate soft deletes a slot.
func (r *ScheduleRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE schedule_slots SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate schedule slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate schedule slot: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
