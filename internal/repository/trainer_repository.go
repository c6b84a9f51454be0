package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
)

// TrainerRepository handles persistence of trainers.
type TrainerRepository struct {
	db *sqlx.DB
}

// NewTrainerRepository constructs the repository.
func NewTrainerRepository(db *sqlx.DB) *TrainerRepository {
	return &TrainerRepository{db: db}
}

const trainerDetailSelect = `SELECT t.id, t.first_name, t.last_name, t.email, t.phone, t.department_id,
        t.status, t.qualifications, t.hire_date, t.active, t.created_at, t.updated_at,
        d.name AS department_name
        FROM trainers t
        JOIN departments d ON d.id = t.department_id`

// List returns all active trainers.
func (r *TrainerRepository) List(ctx context.Context) ([]models.TrainerDetail, error) {
	query := trainerDetailSelect + " WHERE t.active ORDER BY t.last_name, t.first_name"
	var trainers []models.TrainerDetail
	if err := r.db.SelectContext(ctx, &trainers, query); err != nil {
		return nil, fmt.Errorf("list trainers: %w", err)
	}
	return trainers, nil
}

// FindByID returns a trainer by ID, active or not.
func (r *TrainerRepository) FindByID(ctx context.Context, id int64) (*models.TrainerDetail, error) {
	query := trainerDetailSelect + " WHERE t.id = $1"
	var trainer models.TrainerDetail
	if err := r.db.GetContext(ctx, &trainer, query, id); err != nil {
		return nil, err
	}
	return &trainer, nil
}

// ListAvailable returns active trainers whose status is available.
func (r *TrainerRepository) ListAvailable(ctx context.Context) ([]models.TrainerDetail, error) {
	query := trainerDetailSelect + " WHERE t.active AND t.status = $1 ORDER BY t.last_name, t.first_name"
	var trainers []models.TrainerDetail
	if err := r.db.SelectContext(ctx, &trainers, query, models.TrainerStatusAvailable); err != nil {
		return nil, fmt.Errorf("list available trainers: %w", err)
	}
	return trainers, nil
}

// ListByDepartment returns active trainers of one department.
func (r *TrainerRepository) ListByDepartment(ctx context.Context, departmentID int64) ([]models.TrainerDetail, error) {
	query := trainerDetailSelect + " WHERE t.active AND t.department_id = $1 ORDER BY t.last_name, t.first_name"
	var trainers []models.TrainerDetail
	if err := r.db.SelectContext(ctx, &trainers, query, departmentID); err != nil {
		return nil, fmt.Errorf("list trainers by department: %w", err)
	}
	return trainers, nil
}

// Create persists a new trainer.
func (r *TrainerRepository) Create(ctx context.Context, trainer *models.Trainer) error {
	now := time.Now().UTC()
	trainer.CreatedAt = now
	trainer.UpdatedAt = now
	const query = `INSERT INTO trainers (first_name, last_name, email, phone, department_id, status,
        qualifications, hire_date, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, first_name, last_name, email, phone, department_id, status, qualifications, hire_date, active, created_at, updated_at`
	if err := r.db.GetContext(ctx, trainer, query,
		trainer.FirstName, trainer.LastName, trainer.Email, trainer.Phone, trainer.DepartmentID,
		trainer.Status, trainer.Qualifications, trainer.HireDate, trainer.Active,
		trainer.CreatedAt, trainer.UpdatedAt); err != nil {
		return fmt.Errorf("create trainer: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a trainer.
func (r *TrainerRepository) Update(ctx context.Context, trainer *models.Trainer) error {
	const query = `UPDATE trainers SET first_name = $2, last_name = $3, email = $4, phone = $5,
        department_id = $6, status = $7, qualifications = $8, hire_date = $9, updated_at = $10
        WHERE id = $1
        RETURNING id, first_name, last_name, email, phone, department_id, status, qualifications, hire_date, active, created_at, updated_at`
	if err := r.db.GetContext(ctx, trainer, query,
		trainer.ID, trainer.FirstName, trainer.LastName, trainer.Email, trainer.Phone,
		trainer.DepartmentID, trainer.Status, trainer.Qualifications, trainer.HireDate,
		time.Now().UTC()); err != nil {
		return err
	}
	return nil
}

// Deactivate soft deletes a trainer.
func (r *TrainerRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trainers SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate trainer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate trainer: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
