package models

import "time"

// AttendanceRecord is a per-date presence entry for a student in a course.
// Records are unique per (student, course, date); recording the same triple
// again updates the existing row. RecordedAt is immutable after creation.
type AttendanceRecord struct {
	ID         int64     `db:"id" json:"id"`
	StudentID  int64     `db:"student_id" json:"student_id"`
	CourseID   int64     `db:"course_id" json:"course_id"`
	Date       time.Time `db:"date" json:"date"`
	Present    bool      `db:"present" json:"present"`
	Excused    bool      `db:"excused" json:"excused"`
	Remark     *string   `db:"remark" json:"remark,omitempty"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceDetail enriches AttendanceRecord with reference names.
type AttendanceDetail struct {
	AttendanceRecord
	StudentName string `db:"student_name" json:"student_name"`
	CourseName  string `db:"course_name" json:"course_name"`
}

// AttendanceStatistics aggregates a student's attendance in one course.
// PresentDays + ExcusedDays + UnexcusedDays == TotalDays.
type AttendanceStatistics struct {
	TotalDays      int64   `json:"total_days"`
	PresentDays    int64   `json:"present_days"`
	ExcusedDays    int64   `json:"excused_days"`
	UnexcusedDays  int64   `json:"unexcused_days"`
	AttendanceRate float64 `json:"attendance_rate"`
}
