package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
)

// DepartmentRepository handles persistence of departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns all active departments.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT id, name, description, active, created_at, updated_at FROM departments WHERE active ORDER BY name`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByID returns a department by ID.
func (r *DepartmentRepository) FindByID(ctx context.Context, id int64) (*models.Department, error) {
	const query = `SELECT id, name, description, active, created_at, updated_at FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// Create persists a new department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	now := time.Now().UTC()
	department.CreatedAt = now
	department.UpdatedAt = now
	const query = `INSERT INTO departments (name, description, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id, name, description, active, created_at, updated_at`
	if err := r.db.GetContext(ctx, department, query,
		department.Name, department.Description, department.Active, department.CreatedAt, department.UpdatedAt); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update overwrites name and description.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	const query = `UPDATE departments SET name = $2, description = $3, updated_at = $4
        WHERE id = $1 RETURNING id, name, description, active, created_at, updated_at`
	if err := r.db.GetContext(ctx, department, query,
		department.ID, department.Name, department.Description, time.Now().UTC()); err != nil {
		return err
	}
	return nil
}

// Deactivate soft deletes a department.
func (r *DepartmentRepository) Deactivate(ctx context.Context, id int64) error {
	return deactivateByID(ctx, r.db, "departments", id)
}

// RoomRepository handles persistence of rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs the repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns all active rooms.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, name, capacity, location, active, created_at, updated_at FROM rooms WHERE active ORDER BY name`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// FindByID returns a room by ID.
func (r *RoomRepository) FindByID(ctx context.Context, id int64) (*models.Room, error) {
	const query = `SELECT id, name, capacity, location, active, created_at, updated_at FROM rooms WHERE id = $1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Create persists a new room.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	const query = `INSERT INTO rooms (name, capacity, location, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, name, capacity, location, active, created_at, updated_at`
	if err := r.db.GetContext(ctx, room, query,
		room.Name, room.Capacity, room.Location, room.Active, room.CreatedAt, room.UpdatedAt); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a room.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	const query = `UPDATE rooms SET name = $2, capacity = $3, location = $4, updated_at = $5
        WHERE id = $1 RETURNING id, name, capacity, location, active, created_at, updated_at`
	if err := r.db.GetContext(ctx, room, query,
		room.ID, room.Name, room.Capacity, room.Location, time.Now().UTC()); err != nil {
		return err
	}
	return nil
}

// Deactivate soft deletes a room.
func (r *RoomRepository) Deactivate(ctx context.Context, id int64) error {
	return deactivateByID(ctx, r.db, "rooms", id)
}

// CourseTypeRepository handles persistence of course types.
type CourseTypeRepository struct {
	db *sqlx.DB
}

// NewCourseTypeRepository constructs the repository.
func NewCourseTypeRepository(db *sqlx.DB) *CourseTypeRepository {
	return &CourseTypeRepository{db: db}
}

// List returns all active course types.
func (r *CourseTypeRepository) List(ctx context.Context) ([]models.CourseType, error) {
	const query = `SELECT id, code, name, description, active, created_at, updated_at FROM course_types WHERE active ORDER BY code`
	var types []models.CourseType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list course types: %w", err)
	}
	return types, nil
}

// FindByID returns a course type by ID.
func (r *CourseTypeRepository) FindByID(ctx context.Context, id int64) (*models.CourseType, error) {
	const query = `SELECT id, code, name, description, active, created_at, updated_at FROM course_types WHERE id = $1`
	var courseType models.CourseType
	if err := r.db.GetContext(ctx, &courseType, query, id); err != nil {
		return nil, err
	}
	return &courseType, nil
}

// ExistsByCode reports whether an active type with the code exists.
func (r *CourseTypeRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM course_types WHERE code = $1 LIMIT 1`, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course type code: %w", err)
	}
	return true, nil
}

// Create persists a new course type.
func (r *CourseTypeRepository) Create(ctx context.Context, courseType *models.CourseType) error {
	now := time.Now().UTC()
	courseType.CreatedAt = now
	courseType.UpdatedAt = now
	const query = `INSERT INTO course_types (code, name, description, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, code, name, description, active, created_at, updated_at`
	if err := r.db.GetContext(ctx, courseType, query,
		courseType.Code, courseType.Name, courseType.Description, courseType.Active,
		courseType.CreatedAt, courseType.UpdatedAt); err != nil {
		return fmt.Errorf("create course type: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a course type.
func (r *CourseTypeRepository) Update(ctx context.Context, courseType *models.CourseType) error {
	const query = `UPDATE course_types SET code = $2, name = $3, description = $4, updated_at = $5
        WHERE id = $1 RETURNING id, code, name, description, active, created_at, updated_at`
	if err := r.db.GetContext(ctx, courseType, query,
		courseType.ID, courseType.Code, courseType.Name, courseType.Description, time.Now().UTC()); err != nil {
		return err
	}
	return nil
}

// Deactivate soft deletes a course type.
func (r *CourseTypeRepository) Deactivate(ctx context.Context, id int64) error {
	return deactivateByID(ctx, r.db, "course_types", id)
}

func deactivateByID(ctx context.Context, db *sqlx.DB, table string, id int64) error {
	query := fmt.Sprintf(`UPDATE %s SET active = FALSE, updated_at = $2 WHERE id = $1`, table)
	res, err := db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate %s row: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate %s row: %w", table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
