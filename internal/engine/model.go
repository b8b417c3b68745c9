package engine

import (
	"fmt"
	"sort"
)

// candidate is one feasible-by-static-checks (teacher, room, slot) triple for
// a demand, with its soft-constraint flags precomputed.
type candidate struct {
	teacher int // snapshot indices
	room    int
	slot    int

	preferred bool
	primary   bool
}

// variable is one undecided hour-unit of a demand.
type variable struct {
	demand int
	unit   int
	cands  []candidate // shared across units of the same demand
}

// Model holds the decision variables and candidate domains of one run.
type Model struct {
	Snap  *Snapshot
	Rules Rules

	vars        []variable
	demandCands [][]candidate

	// staticBlocked tallies candidates eliminated before search, per demand
	// and constraint kind, for conflict explanations.
	staticBlocked []map[ConstraintKind]int

	// primaryApplicable marks demands whose course has at least one primary
	// teacher among the eligible set, making the primary-teacher soft
	// preference meaningful.
	primaryApplicable []bool

	preAssigned []Assignment
}

// Build translates a snapshot into decision variables and candidate domains.
// It fails with a ModelError on the statically infeasible cases that need no
// search: a demand with zero eligible teachers or zero fitting rooms.
func Build(snap *Snapshot, rules Rules) (*Model, error) {
	m := &Model{
		Snap:              snap,
		Rules:             rules,
		demandCands:       make([][]candidate, len(snap.Demands)),
		staticBlocked:     make([]map[ConstraintKind]int, len(snap.Demands)),
		primaryApplicable: make([]bool, len(snap.Demands)),
	}

	for di := range snap.Demands {
		demand := &snap.Demands[di]
		m.staticBlocked[di] = map[ConstraintKind]int{}

		var eligible []int
		for ti := range snap.Teachers {
			if snap.Teachers[ti].Eligible[demand.CourseID] {
				eligible = append(eligible, ti)
				if snap.Teachers[ti].Primary[demand.CourseID] {
					m.primaryApplicable[di] = true
				}
			}
		}
		if len(eligible) == 0 {
			return nil, &ModelError{
				CourseID:  demand.CourseID,
				SectionID: demand.SectionID,
				Kind:      ConstraintTeacherEligibility,
				Reason:    "no eligible teacher holds an active assignment for this course",
			}
		}

		var fitting []int
		for ri := range snap.Rooms {
			if snap.Rooms[ri].Fits(demand) {
				fitting = append(fitting, ri)
			} else {
				m.staticBlocked[di][ConstraintRoomFitness]++
			}
		}
		if len(fitting) == 0 {
			return nil, &ModelError{
				CourseID:  demand.CourseID,
				SectionID: demand.SectionID,
				Kind:      ConstraintRoomFitness,
				Reason:    "no available room satisfies the capacity, room type and equipment requirements",
			}
		}

		var cands []candidate
		for _, ti := range eligible {
			teacher := &snap.Teachers[ti]
			for si := range snap.Slots {
				if teacher.Unavailable[snap.Slots[si].Day] {
					m.staticBlocked[di][ConstraintTeacherAvailability]++
					continue
				}
				preferred := teacher.Preferred[snap.Slots[si].ID]
				primary := teacher.Primary[demand.CourseID]
				for _, ri := range fitting {
					cands = append(cands, candidate{
						teacher:   ti,
						room:      ri,
						slot:      si,
						preferred: preferred,
						primary:   primary,
					})
				}
			}
		}
		sortCandidates(snap, cands)
		m.demandCands[di] = cands
	}

	if err := m.applyLocked(); err != nil {
		return nil, err
	}

	lockedCount := make([]int, len(snap.Demands))
	for _, pre := range m.preAssigned {
		lockedCount[pre.demand]++
	}

	for di := range snap.Demands {
		units := snap.Demands[di].HoursPerWeek - lockedCount[di]
		for unit := 0; unit < units; unit++ {
			m.vars = append(m.vars, variable{demand: di, unit: unit, cands: m.demandCands[di]})
		}
	}

	// Most-constrained-first: fewest remaining candidate triples first. The
	// stable sort keeps hour-units of one demand adjacent and in unit order.
	sort.SliceStable(m.vars, func(i, j int) bool {
		return len(m.vars[i].cands) < len(m.vars[j].cands)
	})

	return m, nil
}

// sortCandidates orders a domain by the deterministic tie-break chain:
// preferred slot, primary teacher, lowest slot id, then teacher and room ids.
func sortCandidates(snap *Snapshot, cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.preferred != b.preferred {
			return a.preferred
		}
		if a.primary != b.primary {
			return a.primary
		}
		if snap.Slots[a.slot].ID != snap.Slots[b.slot].ID {
			return snap.Slots[a.slot].ID < snap.Slots[b.slot].ID
		}
		if snap.Teachers[a.teacher].ID != snap.Teachers[b.teacher].ID {
			return snap.Teachers[a.teacher].ID < snap.Teachers[b.teacher].ID
		}
		return snap.Rooms[a.room].ID < snap.Rooms[b.room].ID
	})
}

// applyLocked resolves locked entries into pre-assignments. Entries whose
// course/section pair is no longer demanded are skipped; dangling teacher,
// room or slot references are data drift and fail the build.
func (m *Model) applyLocked() error {
	if len(m.Snap.Locked) == 0 {
		return nil
	}

	demandIdx := make(map[[2]int64]int, len(m.Snap.Demands))
	for di, d := range m.Snap.Demands {
		demandIdx[[2]int64{d.CourseID, d.SectionID}] = di
	}

	for _, locked := range m.Snap.Locked {
		di, ok := demandIdx[[2]int64{locked.CourseID, locked.SectionID}]
		if !ok {
			continue
		}
		ti, ok := m.Snap.TeacherByID(locked.TeacherID)
		if !ok {
			return fmt.Errorf("locked entry references unknown teacher %d", locked.TeacherID)
		}
		ri, ok := m.Snap.RoomByID(locked.RoomID)
		if !ok {
			return fmt.Errorf("locked entry references unknown room %d", locked.RoomID)
		}
		si, ok := m.Snap.SlotByID(locked.TimeSlotID)
		if !ok {
			return fmt.Errorf("locked entry references unknown time slot %d", locked.TimeSlotID)
		}

		teacher := &m.Snap.Teachers[ti]
		m.preAssigned = append(m.preAssigned, Assignment{
			demand:         di,
			CourseID:       locked.CourseID,
			SectionID:      locked.SectionID,
			TeacherID:      locked.TeacherID,
			RoomID:         locked.RoomID,
			TimeSlotID:     locked.TimeSlotID,
			PreferredSlot:  teacher.Preferred[locked.TimeSlotID],
			PrimaryTeacher: teacher.Primary[locked.CourseID],
			Locked:         true,

			teacher: ti,
			room:    ri,
			slot:    si,
		})
	}
	return nil
}
