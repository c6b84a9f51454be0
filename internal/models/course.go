package models

import "time"

// CourseStatus represents the lifecycle of a course.
type CourseStatus string

// Possible course statuses. Status transitions are deliberately unrestricted;
// any status may be overwritten with any other.
const (
	CourseStatusPlanned   CourseStatus = "planned"
	CourseStatusRunning   CourseStatus = "running"
	CourseStatusCompleted CourseStatus = "completed"
	CourseStatusCancelled CourseStatus = "cancelled"
)

// Valid reports whether the status is a known value.
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusPlanned, CourseStatusRunning, CourseStatusCompleted, CourseStatusCancelled:
		return true
	}
	return false
}

// Course is a scheduled offering of a course type, bound to a room and
// trainer. CurrentParticipants is a materialised counter kept in sync with
// enrollment rows; 0 <= CurrentParticipants <= MaxParticipants holds at all
// times.
type Course struct {
	ID                  int64        `db:"id" json:"id"`
	Name                string       `db:"name" json:"name"`
	CourseTypeID        int64        `db:"course_type_id" json:"course_type_id"`
	RoomID              int64        `db:"room_id" json:"room_id"`
	TrainerID           int64        `db:"trainer_id" json:"trainer_id"`
	StartDate           time.Time    `db:"start_date" json:"start_date"`
	EndDate             *time.Time   `db:"end_date" json:"end_date,omitempty"`
	MaxParticipants     int          `db:"max_participants" json:"max_participants"`
	CurrentParticipants int          `db:"current_participants" json:"current_participants"`
	Status              CourseStatus `db:"status" json:"status"`
	Description         *string      `db:"description" json:"description,omitempty"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at" json:"updated_at"`
}

// HasOpenSeats reports whether another participant fits into the course.
func (c *Course) HasOpenSeats() bool {
	return c.CurrentParticipants < c.MaxParticipants
}

// ValidDateRange reports whether the end date, when set, is after the start.
func (c *Course) ValidDateRange() bool {
	if c.EndDate == nil {
		return true
	}
	return c.EndDate.After(c.StartDate)
}

// CourseDetail enriches Course with reference names for list views.
type CourseDetail struct {
	Course
	CourseTypeCode string `db:"course_type_code" json:"course_type_code"`
	CourseTypeName string `db:"course_type_name" json:"course_type_name"`
	RoomName       string `db:"room_name" json:"room_name"`
	TrainerName    string `db:"trainer_name" json:"trainer_name"`
}

// CourseFilter provides filters for listing courses.
type CourseFilter struct {
	Status    CourseStatus
	TrainerID int64
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
