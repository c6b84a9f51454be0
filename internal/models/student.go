package models

import "time"

// Gender uses the single-letter codes the institute records.
type Gender string

// Possible gender codes.
const (
	GenderMale    Gender = "m"
	GenderFemale  Gender = "w"
	GenderDiverse Gender = "d"
)

// Valid reports whether the gender code is known.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderDiverse:
		return true
	}
	return false
}

// Student is a learner who may enroll in courses. Deactivation is a soft
// delete; rows are never removed.
type Student struct {
	ID               int64      `db:"id" json:"id"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	Email            *string    `db:"email" json:"email,omitempty"`
	Phone            *string    `db:"phone" json:"phone,omitempty"`
	BirthDate        *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Gender           *Gender    `db:"gender" json:"gender,omitempty"`
	Nationality      *string    `db:"nationality" json:"nationality,omitempty"`
	NativeLanguage   *string    `db:"native_language" json:"native_language,omitempty"`
	RegistrationDate time.Time  `db:"registration_date" json:"registration_date"`
	Active           bool       `db:"active" json:"active"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}
