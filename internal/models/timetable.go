package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONMap is a loosely-keyed JSON object column, used for generation rules
// and the persisted generation report.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return nil, fmt.Errorf("encode json map: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, m)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("decode json map: unsupported source %T", src)
	}
}

// Timetable is the owning record of one generated schedule for a semester.
type Timetable struct {
	ID              int64           `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	SemesterID      int64           `db:"semester_id" json:"semester_id"`
	Status          TimetableStatus `db:"status" json:"status"`
	GenerationRules JSONMap         `db:"generation_rules" json:"generation_rules"`
	Report          JSONMap         `db:"generation_report" json:"generation_report,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
	GeneratedAt     *time.Time      `db:"generated_at" json:"generated_at,omitempty"`
	GeneratedBy     *string         `db:"generated_by" json:"generated_by,omitempty"`
}

// TimetableEntry places one course hour-unit for a section into a room and slot.
type TimetableEntry struct {
	ID          int64     `db:"id" json:"id"`
	TimetableID int64     `db:"timetable_id" json:"timetable_id"`
	CourseID    int64     `db:"course_id" json:"course_id"`
	TeacherID   int64     `db:"teacher_id" json:"teacher_id"`
	RoomID      int64     `db:"room_id" json:"room_id"`
	SectionID   int64     `db:"section_id" json:"section_id"`
	TimeSlotID  int64     `db:"time_slot_id" json:"time_slot_id"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableEntryDetail enriches entries with display names for list views.
type TimetableEntryDetail struct {
	TimetableEntry
	CourseCode  string    `db:"course_code" json:"course_code"`
	CourseName  string    `db:"course_name" json:"course_name"`
	TeacherName string    `db:"teacher_name" json:"teacher_name"`
	RoomNumber  string    `db:"room_number" json:"room_number"`
	SectionName string    `db:"section_name" json:"section_name"`
	SlotName    string    `db:"slot_name" json:"slot_name"`
	DayOfWeek   DayOfWeek `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
}
