package engine

import "fmt"

// ConstraintKind identifies the hard constraint that blocked a placement.
type ConstraintKind string

const (
	ConstraintTeacherEligibility  ConstraintKind = "TEACHER_ELIGIBILITY"
	ConstraintTeacherOverlap      ConstraintKind = "TEACHER_OVERLAP"
	ConstraintRoomOverlap         ConstraintKind = "ROOM_OVERLAP"
	ConstraintSectionOverlap      ConstraintKind = "SECTION_OVERLAP"
	ConstraintRoomFitness         ConstraintKind = "ROOM_FITNESS"
	ConstraintTeacherAvailability ConstraintKind = "TEACHER_AVAILABILITY"
	ConstraintTeacherLoad         ConstraintKind = "TEACHER_LOAD"
	ConstraintWeeklyCoverage      ConstraintKind = "WEEKLY_COVERAGE"
)

// SnapshotError signals that a semester holds nothing schedulable. It is
// terminal for the run; the engine never retries.
type SnapshotError struct {
	SemesterID int64
	Reason     string
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("semester %d: %s", e.SemesterID, e.Reason)
}

// ModelError signals a statically infeasible demand detected before any
// search step runs.
type ModelError struct {
	CourseID  int64
	SectionID int64
	Kind      ConstraintKind
	Reason    string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("course %d / section %d: %s", e.CourseID, e.SectionID, e.Reason)
}

// TimeoutError signals that the step budget ran out before the search proved
// either a solution or infeasibility. Distinct from an infeasible result so
// the caller can raise the budget or relax preferences instead of assuming no
// solution exists.
type TimeoutError struct {
	Steps    int
	Assigned int
	Total    int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("search budget of %d steps exhausted with %d of %d hour-units placed", e.Steps, e.Assigned, e.Total)
}
