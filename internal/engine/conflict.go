package engine

import (
	"fmt"
	"sort"
)

// Conflict explains why one demand could never be placed. The reporter emits
// at most one Conflict per unsatisfiable demand.
type Conflict struct {
	Kind        ConstraintKind `json:"kind"`
	CourseID    int64          `json:"course_id"`
	SectionID   int64          `json:"section_id"`
	CourseCode  string         `json:"course_code"`
	SectionName string         `json:"section_name"`
	TeacherIDs  []int64        `json:"teacher_ids,omitempty"`
	RoomIDs     []int64        `json:"room_ids,omitempty"`
	Message     string         `json:"message"`
}

// kindPriority breaks ties between equally-tallied blocking constraints so
// explanations stay stable across runs.
var kindPriority = map[ConstraintKind]int{
	ConstraintTeacherLoad:         0,
	ConstraintSectionOverlap:      1,
	ConstraintTeacherOverlap:      2,
	ConstraintRoomOverlap:         3,
	ConstraintTeacherAvailability: 4,
	ConstraintRoomFitness:         5,
	ConstraintWeeklyCoverage:      6,
	ConstraintTeacherEligibility:  7,
}

// conflicts collapses the recorded blocking-constraint trail into a minimal
// explanatory set: the demands that exhausted their candidates, each with
// its dominant blocking constraint.
func (s *search) conflicts() []Conflict {
	demands := make([]int, 0, len(s.unplaced))
	for di := range s.unplaced {
		demands = append(demands, di)
	}
	sort.Ints(demands)

	// Demands rejected or pruned during the search carry the cause. Demands
	// that only exhausted because deeper placements failed are victims; they
	// enter the report only when nothing else explains the failure.
	var result []Conflict
	for _, di := range demands {
		if len(s.dynBlocked[di]) == 0 {
			continue
		}
		result = append(result, s.buildConflict(di, dominantKind(s.dynBlocked[di])))
	}

	if len(result) == 0 {
		for _, di := range demands {
			if len(s.m.staticBlocked[di]) == 0 {
				continue
			}
			result = append(result, s.buildConflict(di, dominantKind(s.m.staticBlocked[di])))
		}
	}

	if len(result) == 0 && len(demands) > 0 {
		// The root demand exhausted without any recorded rejection: every
		// candidate chain was cut off by later wipes. Report it directly.
		result = append(result, s.buildConflict(demands[0], ConstraintWeeklyCoverage))
	}
	return result
}

func dominantKind(tallies map[ConstraintKind]int) ConstraintKind {
	var best ConstraintKind
	bestCount := -1
	for kind, count := range tallies {
		if count > bestCount || (count == bestCount && kindPriority[kind] < kindPriority[best]) {
			best = kind
			bestCount = count
		}
	}
	return best
}

func (s *search) buildConflict(di int, kind ConstraintKind) Conflict {
	demand := &s.snap.Demands[di]
	conflict := Conflict{
		Kind:        kind,
		CourseID:    demand.CourseID,
		SectionID:   demand.SectionID,
		CourseCode:  demand.CourseCode,
		SectionName: demand.SectionName,
	}

	for ti := range s.snap.Teachers {
		if s.snap.Teachers[ti].Eligible[demand.CourseID] {
			conflict.TeacherIDs = append(conflict.TeacherIDs, s.snap.Teachers[ti].ID)
		}
	}
	if kind == ConstraintRoomFitness || kind == ConstraintRoomOverlap {
		for ri := range s.snap.Rooms {
			if s.snap.Rooms[ri].Fits(demand) {
				conflict.RoomIDs = append(conflict.RoomIDs, s.snap.Rooms[ri].ID)
			}
		}
	}

	label := fmt.Sprintf("%s for section %s", demand.CourseCode, demand.SectionName)
	switch kind {
	case ConstraintTeacherLoad:
		conflict.Message = fmt.Sprintf("no teacher available for %s: all eligible teachers already at max hours per week", label)
	case ConstraintSectionOverlap:
		conflict.Message = fmt.Sprintf("section %s has no conflict-free time slot left for %s", demand.SectionName, demand.CourseCode)
	case ConstraintTeacherOverlap:
		conflict.Message = fmt.Sprintf("every candidate slot for %s overlaps another assignment of the eligible teachers", label)
	case ConstraintRoomOverlap:
		conflict.Message = fmt.Sprintf("no fitting room is free in any candidate slot for %s", label)
	case ConstraintTeacherAvailability:
		conflict.Message = fmt.Sprintf("the eligible teachers for %s are unavailable on every candidate day", label)
	case ConstraintRoomFitness:
		conflict.Message = fmt.Sprintf("no room of sufficient capacity satisfies the room type and equipment required by %s", label)
	case ConstraintWeeklyCoverage:
		conflict.Message = fmt.Sprintf("not enough distinct time slots to cover %d weekly hours of %s", demand.HoursPerWeek, label)
	default:
		conflict.Message = fmt.Sprintf("no feasible teacher/room/slot combination for %s", label)
	}
	return conflict
}
