package models

import "time"

// TrainerStatus describes a trainer's current deployment state.
type TrainerStatus string

// Possible trainer statuses.
const (
	TrainerStatusAvailable TrainerStatus = "available"
	TrainerStatusDeployed  TrainerStatus = "deployed"
	TrainerStatusAbsent    TrainerStatus = "absent"
)

// Valid reports whether the status is a known value.
func (s TrainerStatus) Valid() bool {
	switch s {
	case TrainerStatusAvailable, TrainerStatusDeployed, TrainerStatusAbsent:
		return true
	}
	return false
}

// Trainer teaches courses and belongs to a department.
type Trainer struct {
	ID             int64         `db:"id" json:"id"`
	FirstName      string        `db:"first_name" json:"first_name"`
	LastName       string        `db:"last_name" json:"last_name"`
	Email          *string       `db:"email" json:"email,omitempty"`
	Phone          *string       `db:"phone" json:"phone,omitempty"`
	DepartmentID   int64         `db:"department_id" json:"department_id"`
	Status         TrainerStatus `db:"status" json:"status"`
	Qualifications *string       `db:"qualifications" json:"qualifications,omitempty"`
	HireDate       *time.Time    `db:"hire_date" json:"hire_date,omitempty"`
	Active         bool          `db:"active" json:"active"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// TrainerDetail enriches Trainer with department info.
type TrainerDetail struct {
	Trainer
	DepartmentName string `db:"department_name" json:"department_name"`
}
