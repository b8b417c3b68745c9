package models

// DayOfWeek enumerates schedulable weekdays.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

// Valid reports whether the value is one of the closed day variants.
func (d DayOfWeek) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// CourseType enumerates delivery formats for a course.
type CourseType string

const (
	CourseTheory    CourseType = "THEORY"
	CourseLab       CourseType = "LAB"
	CoursePractical CourseType = "PRACTICAL"
	CourseSeminar   CourseType = "SEMINAR"
	CourseProject   CourseType = "PROJECT"
)

// Valid reports whether the value is one of the closed course variants.
func (t CourseType) Valid() bool {
	switch t {
	case CourseTheory, CourseLab, CoursePractical, CourseSeminar, CourseProject:
		return true
	}
	return false
}

// RoomType enumerates room categories.
type RoomType string

const (
	RoomClassroom      RoomType = "CLASSROOM"
	RoomLab            RoomType = "LAB"
	RoomAuditorium     RoomType = "AUDITORIUM"
	RoomSeminarHall    RoomType = "SEMINAR_HALL"
	RoomConferenceRoom RoomType = "CONFERENCE_ROOM"
)

// Valid reports whether the value is one of the closed room variants.
func (t RoomType) Valid() bool {
	switch t {
	case RoomClassroom, RoomLab, RoomAuditorium, RoomSeminarHall, RoomConferenceRoom:
		return true
	}
	return false
}

// TimetableStatus enumerates timetable lifecycle phases.
type TimetableStatus string

const (
	TimetableDraft     TimetableStatus = "DRAFT"
	TimetablePublished TimetableStatus = "PUBLISHED"
	TimetableArchived  TimetableStatus = "ARCHIVED"
)

// Valid reports whether the value is one of the closed status variants.
func (s TimetableStatus) Valid() bool {
	switch s {
	case TimetableDraft, TimetablePublished, TimetableArchived:
		return true
	}
	return false
}
