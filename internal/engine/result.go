package engine

import (
	"sort"
	"time"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

// Status classifies the outcome of one generation run.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusInfeasible Status = "infeasible"
	StatusTimeout    Status = "timeout"
)

// Report is the generation report attached to the timetable.
type Report struct {
	Status         Status     `json:"status"`
	Score          float64    `json:"score"`
	SoftSatisfied  float64    `json:"soft_satisfied"`
	SoftApplicable float64    `json:"soft_applicable"`
	Conflicts      []Conflict `json:"conflicts,omitempty"`
	Detail         string     `json:"detail,omitempty"`
	Steps          int        `json:"steps"`
	Backtracks     int        `json:"backtracks"`
	DurationMS     int64      `json:"duration_ms"`
	GeneratedAt    time.Time  `json:"generated_at"`
	GeneratedBy    string     `json:"generated_by"`
	Rules          Rules      `json:"rules"`
}

// Outcome is the in-memory product of a run; persisting it is the
// responsibility of the storage collaborator.
type Outcome struct {
	Status  Status
	Entries []models.TimetableEntry
	Report  Report
}

// materialize converts a successful solver result into timetable-entry
// records plus the generation report. Locked assignments already exist as
// rows and are excluded from Entries, but still count toward the soft score.
func materialize(m *Model, res *Result, timetableID int64, generatedAt time.Time, generatedBy string) *Outcome {
	satisfied, applicable := softScore(m, res.Assignments)

	entries := make([]models.TimetableEntry, 0, len(res.Assignments))
	for _, a := range res.Assignments {
		if a.Locked {
			continue
		}
		entries = append(entries, models.TimetableEntry{
			TimetableID: timetableID,
			CourseID:    a.CourseID,
			TeacherID:   a.TeacherID,
			RoomID:      a.RoomID,
			SectionID:   a.SectionID,
			TimeSlotID:  a.TimeSlotID,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SectionID != entries[j].SectionID {
			return entries[i].SectionID < entries[j].SectionID
		}
		if entries[i].TimeSlotID != entries[j].TimeSlotID {
			return entries[i].TimeSlotID < entries[j].TimeSlotID
		}
		return entries[i].CourseID < entries[j].CourseID
	})

	score := 1.0
	if applicable > 0 {
		score = satisfied / applicable
	}

	return &Outcome{
		Status:  StatusSuccess,
		Entries: entries,
		Report: Report{
			Status:         StatusSuccess,
			Score:          score,
			SoftSatisfied:  satisfied,
			SoftApplicable: applicable,
			Steps:          res.Stats.Steps,
			Backtracks:     res.Stats.Backtracks,
			DurationMS:     res.Stats.Duration.Milliseconds(),
			GeneratedAt:    generatedAt,
			GeneratedBy:    generatedBy,
			Rules:          m.Rules,
		},
	}
}

// softScore weighs the satisfied soft preferences against the applicable
// ones. A preference only applies where it can be expressed: the preferred
// slot term needs the chosen teacher to state preferences at all, and the
// primary-teacher term needs a primary assignment among the eligible set.
func softScore(m *Model, assignments []Assignment) (satisfied, applicable float64) {
	wPref := m.Rules.SoftWeightPreferredSlot
	wPrim := m.Rules.SoftWeightPrimaryTeacher

	for _, a := range assignments {
		if len(m.Snap.Teachers[a.teacher].Preferred) > 0 {
			applicable += wPref
			if a.PreferredSlot {
				satisfied += wPref
			}
		}
		if m.primaryApplicable[a.demand] {
			applicable += wPrim
			if a.PrimaryTeacher {
				satisfied += wPrim
			}
		}
	}
	return satisfied, applicable
}
