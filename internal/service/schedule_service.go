package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
)

type scheduleRepository interface {
	ListActive(ctx context.Context) ([]models.ScheduleSlot, error)
	FindByID(ctx context.Context, id int64) (*models.ScheduleSlot, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.ScheduleSlot, error)
	ListActiveByCourseAndWeekday(ctx context.Context, courseID int64, weekday string) ([]models.ScheduleSlot, error)
	ListActiveByWeekday(ctx context.Context, weekday string) ([]models.ScheduleSlot, error)
	Create(ctx context.Context, slot *models.ScheduleSlot) error
	Update(ctx context.Context, slot *models.ScheduleSlot) error
	Deactivate(ctx context.Context, id int64) error
}

// ScheduleSlotRequest describes a schedule slot payload.
type ScheduleSlotRequest struct {
	CourseID  int64   `json:"course_id" validate:"required,gt=0"`
	Weekday   string  `json:"weekday" validate:"required"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Remarks   *string `json:"remarks"`
}

// ScheduleService manages weekly schedule slots. New slots are checked for
// collisions against the same course's existing slots on that weekday;
// updates deliberately skip the collision check so staff can swap two slots
// without a temporary third time.
type ScheduleService struct {
	repo      scheduleRepository
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleRepository, courses courseReader, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// ListActive returns all active slots.
func (s *ScheduleService) ListActive(ctx context.Context) ([]models.ScheduleSlot, error) {
	slots, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule slots")
	}
	return slots, nil
}

// Get returns one slot by id.
func (s *ScheduleService) Get(ctx context.Context, id int64) (*models.ScheduleSlot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slot")
	}
	return slot, nil
}

// ListByCourse returns all slots of a course, active or not.
func (s *ScheduleService) ListByCourse(ctx context.Context, courseID int64) ([]models.ScheduleSlot, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	slots, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course slots")
	}
	return slots, nil
}

// ListByWeekday returns all active slots on one weekday.
func (s *ScheduleService) ListByWeekday(ctx context.Context, weekday string) ([]models.ScheduleSlot, error) {
	if !models.ValidWeekday(weekday) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown weekday")
	}
	slots, err := s.repo.ListActiveByWeekday(ctx, weekday)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weekday slots")
	}
	return slots, nil
}

// Create adds a new slot after checking it against the course's existing
// active slots on the same weekday. Touching boundaries count as collisions.
func (s *ScheduleService) Create(ctx context.Context, req ScheduleSlotRequest) (*models.ScheduleSlot, error) {
	slot, err := s.buildSlot(ctx, req)
	if err != nil {
		return nil, err
	}
	siblings, err := s.repo.ListActiveByCourseAndWeekday(ctx, slot.CourseID, slot.Weekday)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule collisions")
	}
	for i := range siblings {
		if slot.Overlaps(&siblings[i]) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "slot overlaps an existing slot of this course")
		}
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule slot")
	}
	s.logger.Info("schedule slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("course_id", slot.CourseID),
		zap.String("weekday", slot.Weekday))
	return slot, nil
}

// Update rewrites an existing slot's weekday, times and remarks.
func (s *ScheduleService) Update(ctx context.Context, id int64, req ScheduleSlotRequest) (*models.ScheduleSlot, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	slot, err := s.buildSlot(ctx, req)
	if err != nil {
		return nil, err
	}
	slot.ID = existing.ID
	if err := s.repo.Update(ctx, slot); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule slot")
	}
	return s.Get(ctx, id)
}

// Delete deactivates a slot.
func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate schedule slot")
	}
	s.logger.Info("schedule slot deactivated", zap.Int64("slot_id", id))
	return nil
}

func (s *ScheduleService) buildSlot(ctx context.Context, req ScheduleSlotRequest) (*models.ScheduleSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if !models.ValidWeekday(req.Weekday) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown weekday")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	slot := &models.ScheduleSlot{
		CourseID:  req.CourseID,
		Weekday:   req.Weekday,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Remarks:   req.Remarks,
		Active:    true,
	}
	if !slot.ValidTimeRange() {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "end time must be after start time")
	}
	return slot, nil
}
