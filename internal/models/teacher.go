package models

import "time"

// Teacher represents an instructor record including the capacity and
// availability attributes consumed by the generation engine.
type Teacher struct {
	ID                 int64      `db:"id" json:"id"`
	EmployeeID         string     `db:"employee_id" json:"employee_id"`
	FirstName          string     `db:"first_name" json:"first_name"`
	LastName           string     `db:"last_name" json:"last_name"`
	Email              string     `db:"email" json:"email"`
	Phone              *string    `db:"phone" json:"phone,omitempty"`
	DepartmentID       int64      `db:"department_id" json:"department_id"`
	Specializations    StringList `db:"specializations" json:"specializations"`
	MaxHoursPerWeek    int        `db:"max_hours_per_week" json:"max_hours_per_week"`
	PreferredTimeSlots Int64List  `db:"preferred_time_slots" json:"preferred_time_slots"`
	UnavailableDays    StringList `db:"unavailable_days" json:"unavailable_days"`
	IsActive           bool       `db:"is_active" json:"is_active"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// UnavailableOn reports whether the teacher blocked the given day.
func (t *Teacher) UnavailableOn(day DayOfWeek) bool {
	for _, raw := range t.UnavailableDays {
		if DayOfWeek(raw) == day {
			return true
		}
	}
	return false
}

// CourseAssignment links a teacher to a course they may deliver.
type CourseAssignment struct {
	ID         int64     `db:"id" json:"id"`
	TeacherID  int64     `db:"teacher_id" json:"teacher_id"`
	CourseID   int64     `db:"course_id" json:"course_id"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
	IsPrimary  bool      `db:"is_primary" json:"is_primary"`
	IsActive   bool      `db:"is_active" json:"is_active"`
}
