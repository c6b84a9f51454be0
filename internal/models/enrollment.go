package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
//
// The intended progression is registered -> active -> completed, with
// registered/active -> withdrawn as the exit path. UpdateStatus does not
// enforce the graph; withdraw() is the only counter-consistent removal.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusRegistered EnrollmentStatus = "registered"
	EnrollmentStatusActive     EnrollmentStatus = "active"
	EnrollmentStatusCompleted  EnrollmentStatus = "completed"
	EnrollmentStatusWithdrawn  EnrollmentStatus = "withdrawn"
)

// Valid reports whether the status is a known value.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusRegistered, EnrollmentStatusActive, EnrollmentStatusCompleted, EnrollmentStatusWithdrawn:
		return true
	}
	return false
}

// Roster reports whether the status counts toward the current roster of a
// course. Completed and withdrawn rows are history, not roster.
func (s EnrollmentStatus) Roster() bool {
	return s == EnrollmentStatusRegistered || s == EnrollmentStatusActive
}

// Enrollment records a student's participation in a course over time. At most
// one row exists per (student, course) pair; rows are never physically
// deleted, the status transition serves as the deletion marker.
type Enrollment struct {
	ID               int64            `db:"id" json:"id"`
	StudentID        int64            `db:"student_id" json:"student_id"`
	CourseID         int64            `db:"course_id" json:"course_id"`
	RegistrationDate time.Time        `db:"registration_date" json:"registration_date"`
	WithdrawalDate   *time.Time       `db:"withdrawal_date" json:"withdrawal_date,omitempty"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	FinalGrade       *string          `db:"final_grade" json:"final_grade,omitempty"`
	Remarks          *string          `db:"remarks" json:"remarks,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with student and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	CourseName  string `db:"course_name" json:"course_name"`
}
