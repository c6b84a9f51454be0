package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
)

type trainerRepository interface {
	List(ctx context.Context) ([]models.TrainerDetail, error)
	FindByID(ctx context.Context, id int64) (*models.TrainerDetail, error)
	ListAvailable(ctx context.Context) ([]models.TrainerDetail, error)
	ListByDepartment(ctx context.Context, departmentID int64) ([]models.TrainerDetail, error)
	Create(ctx context.Context, trainer *models.Trainer) error
	Update(ctx context.Context, trainer *models.Trainer) error
	Deactivate(ctx context.Context, id int64) error
}

type departmentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Department, error)
}

// TrainerRequest describes a trainer create or update payload.
type TrainerRequest struct {
	FirstName      string     `json:"first_name" validate:"required"`
	LastName       string     `json:"last_name" validate:"required"`
	Email          *string    `json:"email" validate:"omitempty,email"`
	Phone          *string    `json:"phone"`
	DepartmentID   int64      `json:"department_id" validate:"required,gt=0"`
	Status         string     `json:"status" validate:"omitempty,oneof=available deployed absent"`
	Qualifications *string    `json:"qualifications"`
	HireDate       *time.Time `json:"hire_date"`
}

// TrainerService manages trainer records.
type TrainerService struct {
	repo        trainerRepository
	departments departmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTrainerService constructs TrainerService.
func NewTrainerService(repo trainerRepository, departments departmentReader, validate *validator.Validate, logger *zap.Logger) *TrainerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainerService{repo: repo, departments: departments, validator: validate, logger: logger}
}

// List returns all active trainers.
func (s *TrainerService) List(ctx context.Context) ([]models.TrainerDetail, error) {
	trainers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trainers")
	}
	return trainers, nil
}

// Get returns one trainer by id.
func (s *TrainerService) Get(ctx context.Context, id int64) (*models.TrainerDetail, error) {
	trainer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trainer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}
	return trainer, nil
}

// ListAvailable returns trainers currently free for deployment.
func (s *TrainerService) ListAvailable(ctx context.Context) ([]models.TrainerDetail, error) {
	trainers, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available trainers")
	}
	return trainers, nil
}

// ListByDepartment returns trainers of one department.
func (s *TrainerService) ListByDepartment(ctx context.Context, departmentID int64) ([]models.TrainerDetail, error) {
	if _, err := s.departments.FindByID(ctx, departmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	trainers, err := s.repo.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trainers by department")
	}
	return trainers, nil
}

// Create registers a new trainer.
func (s *TrainerService) Create(ctx context.Context, req TrainerRequest) (*models.TrainerDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trainer payload")
	}
	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	status := models.TrainerStatus(req.Status)
	if req.Status == "" {
		status = models.TrainerStatusAvailable
	}
	trainer := &models.Trainer{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		DepartmentID:   req.DepartmentID,
		Status:         status,
		Qualifications: req.Qualifications,
		HireDate:       req.HireDate,
		Active:         true,
	}
	if err := s.repo.Create(ctx, trainer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create trainer")
	}
	s.logger.Info("trainer created", zap.Int64("trainer_id", trainer.ID))
	return s.Get(ctx, trainer.ID)
}

// Update modifies an existing trainer.
func (s *TrainerService) Update(ctx context.Context, id int64, req TrainerRequest) (*models.TrainerDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trainer payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.DepartmentID != existing.DepartmentID {
		if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
		}
	}
	trainer := existing.Trainer
	trainer.FirstName = req.FirstName
	trainer.LastName = req.LastName
	trainer.Email = req.Email
	trainer.Phone = req.Phone
	trainer.DepartmentID = req.DepartmentID
	if req.Status != "" {
		trainer.Status = models.TrainerStatus(req.Status)
	}
	trainer.Qualifications = req.Qualifications
	trainer.HireDate = req.HireDate
	if err := s.repo.Update(ctx, &trainer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update trainer")
	}
	return s.Get(ctx, id)
}

// UpdateStatus changes only the deployment status of a trainer.
func (s *TrainerService) UpdateStatus(ctx context.Context, id int64, status models.TrainerStatus) (*models.TrainerDetail, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown trainer status")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	trainer := existing.Trainer
	trainer.Status = status
	if err := s.repo.Update(ctx, &trainer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update trainer status")
	}
	return s.Get(ctx, id)
}

// Delete deactivates a trainer.
func (s *TrainerService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "trainer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate trainer")
	}
	s.logger.Info("trainer deactivated", zap.Int64("trainer_id", id))
	return nil
}
