package dto

import (
	"time"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

// CreateTimetableRequest opens a new draft timetable for a semester.
type CreateTimetableRequest struct {
	Name            string         `json:"name" validate:"required,min=3,max=120"`
	SemesterID      int64          `json:"semesterId" validate:"required,min=1"`
	GenerationRules map[string]any `json:"generationRules"`
}

// GenerateTimetableRequest starts a generation run for a timetable. Rule
// overrides are layered over the rules stored on the timetable.
type GenerateTimetableRequest struct {
	RuleOverrides map[string]any `json:"ruleOverrides"`
	Async         bool           `json:"async"`
}

// GenerationRunResponse acknowledges an accepted asynchronous run.
type GenerationRunResponse struct {
	RunID       string `json:"runId"`
	TimetableID int64  `json:"timetableId"`
	Queued      bool   `json:"queued"`
}

// GenerationReportResponse is the persisted outcome of the latest run.
type GenerationReportResponse struct {
	TimetableID int64          `json:"timetableId"`
	Status      string         `json:"status"`
	Report      map[string]any `json:"report"`
	GeneratedAt *time.Time     `json:"generatedAt,omitempty"`
	GeneratedBy *string        `json:"generatedBy,omitempty"`
}

// UpdateTimetableStatusRequest moves a timetable between lifecycle phases.
type UpdateTimetableStatusRequest struct {
	Status models.TimetableStatus `json:"status" validate:"required"`
}

// TimetableListQuery filters timetable summaries.
type TimetableListQuery struct {
	SemesterID int64 `form:"semesterId" validate:"required,min=1"`
	models.ListQuery
}

// TimetableListResponse pages timetable summaries.
type TimetableListResponse struct {
	Items      []models.Timetable `json:"items"`
	Pagination models.Pagination  `json:"pagination"`
}

// EntryListQuery narrows a timetable's entries to one teacher or section.
type EntryListQuery struct {
	TeacherID *int64 `form:"teacherId" validate:"omitempty,min=1"`
	SectionID *int64 `form:"sectionId" validate:"omitempty,min=1"`
}

// EntryListResponse returns the placement rows of a timetable.
type EntryListResponse struct {
	TimetableID int64                         `json:"timetableId"`
	Entries     []models.TimetableEntryDetail `json:"entries"`
}

// SemesterListQuery filters semesters by department.
type SemesterListQuery struct {
	DepartmentID int64 `form:"departmentId" validate:"required,min=1"`
	models.ListQuery
}

// SemesterListResponse pages semesters.
type SemesterListResponse struct {
	Items      []models.Semester `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}
