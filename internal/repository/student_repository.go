package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
)

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, first_name, last_name, email, phone, birth_date, gender, nationality,
        native_language, registration_date, active, created_at, updated_at`

// List returns all active students.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE active ORDER BY last_name, first_name`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID returns a student by ID, active or not.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// SearchByName matches first or last name case-insensitively.
func (r *StudentRepository) SearchByName(ctx context.Context, name string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students
        WHERE active AND (first_name ILIKE $1 OR last_name ILIKE $1)
        ORDER BY last_name, first_name`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, "%"+name+"%"); err != nil {
		return nil, fmt.Errorf("search students by name: %w", err)
	}
	return students, nil
}

// SearchByEmail matches the email case-insensitively.
func (r *StudentRepository) SearchByEmail(ctx context.Context, email string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE active AND email ILIKE $1 ORDER BY last_name, first_name`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, "%"+email+"%"); err != nil {
		return nil, fmt.Errorf("search students by email: %w", err)
	}
	return students, nil
}

// Create persists a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO students (first_name, last_name, email, phone, birth_date, gender,
        nationality, native_language, registration_date, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING %s`, studentColumns)
	if err := r.db.GetContext(ctx, student, query,
		student.FirstName, student.LastName, student.Email, student.Phone, student.BirthDate, student.Gender,
		student.Nationality, student.NativeLanguage, student.RegistrationDate, student.Active,
		student.CreatedAt, student.UpdatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	query := fmt.Sprintf(`UPDATE students SET first_name = $2, last_name = $3, email = $4, phone = $5,
        birth_date = $6, gender = $7, nationality = $8, native_language = $9, updated_at = $10
        WHERE id = $1 RETURNING %s`, studentColumns)
	if err := r.db.GetContext(ctx, student, query,
		student.ID, student.FirstName, student.LastName, student.Email, student.Phone,
		student.BirthDate, student.Gender, student.Nationality, student.NativeLanguage,
		time.Now().UTC()); err != nil {
		return err
	}
	return nil
}

// Deactivate soft deletes a student.
func (r *StudentRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE students SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
