package models

import "time"

// Weekday names accepted for schedule slots.
var weekdays = map[string]struct{}{
	"Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {},
	"Friday": {}, "Saturday": {}, "Sunday": {},
}

// ValidWeekday reports whether the name is one of Monday..Sunday.
func ValidWeekday(name string) bool {
	_, ok := weekdays[name]
	return ok
}

// ScheduleSlot is a recurring weekly time block assigned to a course.
// Times are minute-of-day values formatted as HH:MM.
type ScheduleSlot struct {
	ID        int64     `db:"id" json:"id"`
	CourseID  int64     `db:"course_id" json:"course_id"`
	Weekday   string    `db:"weekday" json:"weekday"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Remarks   *string   `db:"remarks" json:"remarks,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ValidTimeRange reports whether both times parse and the end is strictly
// after the start.
func (s *ScheduleSlot) ValidTimeRange() bool {
	start, err := ParseSlotTime(s.StartTime)
	if err != nil {
		return false
	}
	end, err := ParseSlotTime(s.EndTime)
	if err != nil {
		return false
	}
	return end > start
}

// Overlaps reports whether two slots collide. The comparison is boundary
// inclusive: a slot starting exactly when another ends still counts as a
// conflict.
func (s *ScheduleSlot) Overlaps(other *ScheduleSlot) bool {
	sStart, err := ParseSlotTime(s.StartTime)
	if err != nil {
		return false
	}
	sEnd, err := ParseSlotTime(s.EndTime)
	if err != nil {
		return false
	}
	oStart, err := ParseSlotTime(other.StartTime)
	if err != nil {
		return false
	}
	oEnd, err := ParseSlotTime(other.EndTime)
	if err != nil {
		return false
	}
	return !(sEnd < oStart || sStart > oEnd)
}

// ParseSlotTime converts an HH:MM string into minutes since midnight.
func ParseSlotTime(raw string) (int, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		// Postgres TIME columns scan back with seconds attached.
		t, err = time.Parse("15:04:05", raw)
		if err != nil {
			return 0, err
		}
	}
	return t.Hour()*60 + t.Minute(), nil
}
