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

const (
	availableCoursesCacheKey = "courses:available"
	coursesCachePattern      = "courses:*"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	FindDetailByID(ctx context.Context, id int64) (*models.CourseDetail, error)
	ListCurrent(ctx context.Context) ([]models.CourseDetail, error)
	ListAvailable(ctx context.Context) ([]models.CourseDetail, error)
	ListByStartDateRange(ctx context.Context, from, to time.Time) ([]models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	UpdateStatus(ctx context.Context, id int64, status models.CourseStatus) (*models.Course, error)
	Delete(ctx context.Context, id int64) error
}

type courseTypeReader interface {
	FindByID(ctx context.Context, id int64) (*models.CourseType, error)
}

type roomReader interface {
	FindByID(ctx context.Context, id int64) (*models.Room, error)
}

type trainerReader interface {
	FindByID(ctx context.Context, id int64) (*models.TrainerDetail, error)
}

// CourseRequest describes a course create or update payload.
type CourseRequest struct {
	Name            string     `json:"name" validate:"required"`
	CourseTypeID    int64      `json:"course_type_id" validate:"required,gt=0"`
	RoomID          int64      `json:"room_id" validate:"required,gt=0"`
	TrainerID       int64      `json:"trainer_id" validate:"required,gt=0"`
	StartDate       time.Time  `json:"start_date" validate:"required"`
	EndDate         *time.Time `json:"end_date"`
	MaxParticipants int        `json:"max_participants" validate:"omitempty,gt=0,lte=50"`
	Description     *string    `json:"description"`
}

// CourseService manages course offerings. MaxParticipants never drops below
// the current roster size on update.
type CourseService struct {
	repo          courseRepository
	courseTypes   courseTypeReader
	rooms         roomReader
	trainers      trainerReader
	cache         *CacheService
	validator     *validator.Validate
	logger        *zap.Logger
	defaultMaxCap int
	cacheTTL      time.Duration
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, courseTypes courseTypeReader, rooms roomReader, trainers trainerReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger, defaultMaxCap int, cacheTTL time.Duration) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultMaxCap <= 0 {
		defaultMaxCap = 12
	}
	return &CourseService{
		repo:          repo,
		courseTypes:   courseTypes,
		rooms:         rooms,
		trainers:      trainers,
		cache:         cache,
		validator:     validate,
		logger:        logger,
		defaultMaxCap: defaultMaxCap,
		cacheTTL:      cacheTTL,
	}
}

// List returns courses matching the filter, with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	if filter.Status != "" && !models.CourseStatus(filter.Status).Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown course status")
	}
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return courses, pagination, nil
}

// Get returns one course with reference names resolved.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.CourseDetail, error) {
	course, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// ListCurrent returns planned and running courses.
func (s *CourseService) ListCurrent(ctx context.Context) ([]models.CourseDetail, error) {
	courses, err := s.repo.ListCurrent(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list current courses")
	}
	return courses, nil
}

// ListAvailable returns planned courses with open seats. Results are cached
// since the list backs the public enrollment page.
func (s *CourseService) ListAvailable(ctx context.Context) ([]models.CourseDetail, error) {
	var cached []models.CourseDetail
	if hit, err := s.cache.Get(ctx, availableCoursesCacheKey, &cached); err == nil && hit {
		return cached, nil
	}
	courses, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available courses")
	}
	if err := s.cache.Set(ctx, availableCoursesCacheKey, courses, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache available courses", zap.Error(err))
	}
	return courses, nil
}

// ListByStartDateRange returns courses starting within [from, to].
func (s *CourseService) ListByStartDateRange(ctx context.Context, from, to time.Time) ([]models.CourseDetail, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "range end must not precede range start")
	}
	courses, err := s.repo.ListByStartDateRange(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses by date range")
	}
	return courses, nil
}

// Create registers a new course in planned status with zero participants.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if err := s.resolveReferences(ctx, req); err != nil {
		return nil, err
	}
	maxParticipants := req.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = s.defaultMaxCap
	}
	course := &models.Course{
		Name:                req.Name,
		CourseTypeID:        req.CourseTypeID,
		RoomID:              req.RoomID,
		TrainerID:           req.TrainerID,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		MaxParticipants:     maxParticipants,
		CurrentParticipants: 0,
		Status:              models.CourseStatusPlanned,
	}
	if !course.ValidDateRange() {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "course end date must be after start date")
	}
	course.Description = req.Description
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidateCache(ctx)
	s.logger.Info("course created", zap.Int64("course_id", course.ID), zap.String("name", course.Name))
	return s.Get(ctx, course.ID)
}

// Update modifies an existing course. The participant counter is owned by
// the enrollment workflow and cannot be changed here; the new capacity must
// not fall below the current roster.
func (s *CourseService) Update(ctx context.Context, id int64, req CourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.resolveReferences(ctx, req); err != nil {
		return nil, err
	}
	maxParticipants := req.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = course.MaxParticipants
	}
	if maxParticipants < course.CurrentParticipants {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "max participants below current roster size")
	}
	course.Name = req.Name
	course.CourseTypeID = req.CourseTypeID
	course.RoomID = req.RoomID
	course.TrainerID = req.TrainerID
	course.StartDate = req.StartDate
	course.EndDate = req.EndDate
	course.MaxParticipants = maxParticipants
	course.Description = req.Description
	if !course.ValidDateRange() {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "course end date must be after start date")
	}
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidateCache(ctx)
	return s.Get(ctx, id)
}

// UpdateStatus overwrites the course status.
func (s *CourseService) UpdateStatus(ctx context.Context, id int64, status models.CourseStatus) (*models.CourseDetail, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown course status")
	}
	if _, err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course status")
	}
	s.invalidateCache(ctx)
	s.logger.Info("course status updated", zap.Int64("course_id", id), zap.String("status", string(status)))
	return s.Get(ctx, id)
}

// Delete cancels a course. Enrollment rows stay untouched.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel course")
	}
	s.invalidateCache(ctx)
	s.logger.Info("course cancelled", zap.Int64("course_id", id))
	return nil
}

// InvalidateAvailable drops the cached available-courses list. Enrollment
// operations call it after changing a participant counter.
func (s *CourseService) InvalidateAvailable(ctx context.Context) {
	s.invalidateCache(ctx)
}

func (s *CourseService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, coursesCachePattern); err != nil {
		s.logger.Warn("failed to invalidate course cache", zap.Error(err))
	}
}

func (s *CourseService) resolveReferences(ctx context.Context, req CourseRequest) error {
	if _, err := s.courseTypes.FindByID(ctx, req.CourseTypeID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course type")
	}
	if _, err := s.rooms.FindByID(ctx, req.RoomID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if _, err := s.trainers.FindByID(ctx, req.TrainerID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "trainer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}
	return nil
}
