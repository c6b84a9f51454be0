package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bildungsinstitut/kursverwaltung/internal/service"
	appErrors "github.com/bildungsinstitut/kursverwaltung/pkg/errors"
	"github.com/bildungsinstitut/kursverwaltung/pkg/response"
)

// DirectoryHandler exposes department, room and course type endpoints.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs DirectoryHandler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// ListDepartments godoc
// @Summary List departments
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *DirectoryHandler) ListDepartments(c *gin.Context) {
	departments, err := h.directory.ListDepartments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}

// GetDepartment godoc
// @Summary Get department
// @Tags Directory
// @Produce json
// @Param id path int true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [get]
func (h *DirectoryHandler) GetDepartment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	department, err := h.directory.GetDepartment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// CreateDepartment godoc
// @Summary Create department
// @Tags Directory
// @Accept json
// @Produce json
// @Param payload body service.DepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Router /departments [post]
func (h *DirectoryHandler) CreateDepartment(c *gin.Context) {
	var req service.DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	department, err := h.directory.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, department)
}

// UpdateDepartment godoc
// @Summary Update department
// @Tags Directory
// @Accept json
// @Produce json
// @Param id path int true "Department ID"
// @Param payload body service.DepartmentRequest true "Department payload"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [put]
func (h *DirectoryHandler) UpdateDepartment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	department, err := h.directory.UpdateDepartment(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// DeleteDepartment godoc
// @Summary Deactivate department
// @Tags Directory
// @Produce json
// @Param id path int true "Department ID"
// @Success 204
// @Router /departments/{id} [delete]
func (h *DirectoryHandler) DeleteDepartment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.directory.DeleteDepartment(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListRooms godoc
// @Summary List rooms
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *DirectoryHandler) ListRooms(c *gin.Context) {
	rooms, err := h.directory.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// GetRoom godoc
// @Summary Get room
// @Tags Directory
// @Produce json
// @Param id path int true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id} [get]
func (h *DirectoryHandler) GetRoom(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	room, err := h.directory.GetRoom(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// CreateRoom godoc
// @Summary Create room
// @Tags Directory
// @Accept json
// @Produce json
// @Param payload body service.RoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Router /rooms [post]
func (h *DirectoryHandler) CreateRoom(c *gin.Context) {
	var req service.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	room, err := h.directory.CreateRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// UpdateRoom godoc
// @Summary Update room
// @Tags Directory
// @Accept json
// @Produce json
// @Param id path int true "Room ID"
// @Param payload body service.RoomRequest true "Room payload"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id} [put]
func (h *DirectoryHandler) UpdateRoom(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	room, err := h.directory.UpdateRoom(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// DeleteRoom godoc
// @Summary Deactivate room
// @Tags Directory
// @Produce json
// @Param id path int true "Room ID"
// @Success 204
// @Router /rooms/{id} [delete]
func (h *DirectoryHandler) DeleteRoom(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.directory.DeleteRoom(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListCourseTypes godoc
// @Summary List course types
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /course-types [get]
func (h *DirectoryHandler) ListCourseTypes(c *gin.Context) {
	courseTypes, err := h.directory.ListCourseTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courseTypes, nil)
}

// GetCourseType godoc
// @Summary Get course type
// @Tags Directory
// @Produce json
// @Param id path int true "Course type ID"
// @Success 200 {object} response.Envelope
// @Router /course-types/{id} [get]
func (h *DirectoryHandler) GetCourseType(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	courseType, err := h.directory.GetCourseType(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courseType, nil)
}

// CreateCourseType godoc
// @Summary Create course type
// @Tags Directory
// @Accept json
// @Produce json
// @Param payload body service.CourseTypeRequest true "Course type payload"
// @Success 201 {object} response.Envelope
// @Router /course-types [post]
func (h *DirectoryHandler) CreateCourseType(c *gin.Context) {
	var req service.CourseTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	courseType, err := h.directory.CreateCourseType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, courseType)
}

// UpdateCourseType godoc
// @Summary Update course type
// @Tags Directory
// @Accept json
// @Produce json
// @Param id path int true "Course type ID"
// @Param payload body service.CourseTypeRequest true "Course type payload"
// @Success 200 {object} response.Envelope
// @Router /course-types/{id} [put]
func (h *DirectoryHandler) UpdateCourseType(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CourseTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	courseType, err := h.directory.UpdateCourseType(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courseType, nil)
}

// DeleteCourseType godoc
// @Summary Deactivate course type
// @Tags Directory
// @Produce json
// @Param id path int true "Course type ID"
// @Success 204
// @Router /course-types/{id} [delete]
func (h *DirectoryHandler) DeleteCourseType(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.directory.DeleteCourseType(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
