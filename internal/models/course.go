package models

import "time"

// Course is a unit of instruction delivered to sections of a semester.
type Course struct {
	ID                int64      `db:"id" json:"id"`
	CourseCode        string     `db:"course_code" json:"course_code"`
	Name              string     `db:"name" json:"name"`
	Description       *string    `db:"description" json:"description,omitempty"`
	Credits           int        `db:"credits" json:"credits"`
	CourseType        CourseType `db:"course_type" json:"course_type"`
	HoursPerWeek      int        `db:"hours_per_week" json:"hours_per_week"`
	RequiredRoomType  *RoomType  `db:"required_room_type" json:"required_room_type,omitempty"`
	RequiredEquipment StringList `db:"required_equipment" json:"required_equipment"`
	SemesterNumber    int        `db:"semester_number" json:"semester_number"`
	DepartmentID      int64      `db:"department_id" json:"department_id"`
	Prerequisites     Int64List  `db:"prerequisites" json:"prerequisites"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}
