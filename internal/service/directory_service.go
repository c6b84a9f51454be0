package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bildungsinstitut/kursverwaltung/internal/models"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
)

type departmentRepository interface {
	List(ctx context.Context) ([]models.Department, error)
	FindByID(ctx context.Context, id int64) (*models.Department, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	Deactivate(ctx context.Context, id int64) error
}

type roomRepository interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id int64) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Deactivate(ctx context.Context, id int64) error
}

type courseTypeRepository interface {
	List(ctx context.Context) ([]models.CourseType, error)
	FindByID(ctx context.Context, id int64) (*models.CourseType, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, courseType *models.CourseType) error
	Update(ctx context.Context, courseType *models.CourseType) error
	Deactivate(ctx context.Context, id int64) error
}

// DepartmentRequest describes a department create or update payload.
type DepartmentRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// RoomRequest describes a room create or update payload.
type RoomRequest struct {
	Name     string  `json:"name" validate:"required"`
	Capacity int     `json:"capacity" validate:"required,gt=0"`
	Location *string `json:"location"`
}

// CourseTypeRequest describes a course type create or update payload.
type CourseTypeRequest struct {
	Code        string  `json:"code" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// DirectoryService manages departments, rooms and course types.
type DirectoryService struct {
	departments departmentRepository
	rooms       roomRepository
	courseTypes courseTypeRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewDirectoryService constructs DirectoryService.
func NewDirectoryService(departments departmentRepository, rooms roomRepository, courseTypes courseTypeRepository, validate *validator.Validate, logger *zap.Logger) *DirectoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{departments: departments, rooms: rooms, courseTypes: courseTypes, validator: validate, logger: logger}
}

// ListDepartments returns all active departments.
func (s *DirectoryService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// GetDepartment returns one department by id.
func (s *DirectoryService) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	department, err := s.departments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return department, nil
}

// CreateDepartment creates a department.
func (s *DirectoryService) CreateDepartment(ctx context.Context, req DepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	department := &models.Department{Name: req.Name, Description: req.Description, Active: true}
	if err := s.departments.Create(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	s.logger.Info("department created", zap.Int64("department_id", department.ID))
	return department, nil
}

// UpdateDepartment updates an existing department.
func (s *DirectoryService) UpdateDepartment(ctx context.Context, id int64, req DepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	department, err := s.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	department.Name = req.Name
	department.Description = req.Description
	if err := s.departments.Update(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}
	return department, nil
}

// DeleteDepartment deactivates a department.
func (s *DirectoryService) DeleteDepartment(ctx context.Context, id int64) error {
	if err := s.departments.Deactivate(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate department")
	}
	return nil
}

// ListRooms returns all active rooms.
func (s *DirectoryService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// GetRoom returns one room by id.
func (s *DirectoryService) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// CreateRoom creates a room.
func (s *DirectoryService) CreateRoom(ctx context.Context, req RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room := &models.Room{Name: req.Name, Capacity: req.Capacity, Location: req.Location, Active: true}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	s.logger.Info("room created", zap.Int64("room_id", room.ID))
	return room, nil
}

// UpdateRoom updates an existing room.
func (s *DirectoryService) UpdateRoom(ctx context.Context, id int64, req RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	room.Name = req.Name
	room.Capacity = req.Capacity
	room.Location = req.Location
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	return room, nil
}

// DeleteRoom deactivates a room.
func (s *DirectoryService) DeleteRoom(ctx context.Context, id int64) error {
	if err := s.rooms.Deactivate(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate room")
	}
	return nil
}

// ListCourseTypes returns all active course types.
func (s *DirectoryService) ListCourseTypes(ctx context.Context) ([]models.CourseType, error) {
	courseTypes, err := s.courseTypes.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course types")
	}
	return courseTypes, nil
}

// GetCourseType returns one course type by id.
func (s *DirectoryService) GetCourseType(ctx context.Context, id int64) (*models.CourseType, error) {
	courseType, err := s.courseTypes.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course type")
	}
	return courseType, nil
}

// CreateCourseType creates a course type. Codes must be unique.
func (s *DirectoryService) CreateCourseType(ctx context.Context, req CourseTypeRequest) (*models.CourseType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course type payload")
	}
	exists, err := s.courseTypes.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course type code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course type code already exists")
	}
	courseType := &models.CourseType{Code: req.Code, Name: req.Name, Description: req.Description, Active: true}
	if err := s.courseTypes.Create(ctx, courseType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course type")
	}
	s.logger.Info("course type created", zap.Int64("course_type_id", courseType.ID), zap.String("code", courseType.Code))
	return courseType, nil
}

// UpdateCourseType updates an existing course type.
func (s *DirectoryService) UpdateCourseType(ctx context.Context, id int64, req CourseTypeRequest) (*models.CourseType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course type payload")
	}
	courseType, err := s.GetCourseType(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Code != courseType.Code {
		exists, err := s.courseTypes.ExistsByCode(ctx, req.Code)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course type code")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course type code already exists")
		}
	}
	courseType.Code = req.Code
	courseType.Name = req.Name
	courseType.Description = req.Description
	if err := s.courseTypes.Update(ctx, courseType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course type")
	}
	return courseType, nil
}

// DeleteCourseType deactivates a course type.
func (s *DirectoryService) DeleteCourseType(ctx context.Context, id int64) error {
	if err := s.courseTypes.Deactivate(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate course type")
	}
	return nil
}
