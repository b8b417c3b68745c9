package engine

import (
	"context"
	"time"
)

// Assignment resolves one hour-unit of a demand to a teacher, room and slot.
type Assignment struct {
	CourseID       int64
	SectionID      int64
	TeacherID      int64
	RoomID         int64
	TimeSlotID     int64
	PreferredSlot  bool
	PrimaryTeacher bool
	Locked         bool

	demand  int
	teacher int
	room    int
	slot    int
}

// Stats summarises the search effort of one run.
type Stats struct {
	Steps      int           `json:"steps"`
	Backtracks int           `json:"backtracks"`
	Duration   time.Duration `json:"-"`
}

// Result is the outcome of a completed (non-timeout) search: exactly one of
// Assignments or Conflicts is non-empty.
type Result struct {
	Assignments []Assignment
	Conflicts   []Conflict
	Stats       Stats
}

// Solve runs depth-first backtracking over the model's variables. It returns
// a Result on success or proven infeasibility, a TimeoutError when the step
// budget runs out first, or the context error on cancellation.
func Solve(ctx context.Context, m *Model) (*Result, error) {
	s := newSearch(m)
	start := time.Now()

	done, err := s.assign(ctx, 0)
	stats := Stats{Steps: s.steps, Backtracks: s.backtracks, Duration: time.Since(start)}
	if err != nil {
		return nil, err
	}

	if done {
		assignments := make([]Assignment, 0, len(m.preAssigned)+len(s.placed))
		assignments = append(assignments, m.preAssigned...)
		assignments = append(assignments, s.placed...)
		return &Result{Assignments: assignments, Stats: stats}, nil
	}

	return &Result{Conflicts: s.conflicts(), Stats: stats}, nil
}

type pruneRecord struct {
	varIdx  int
	candIdx int
}

// slotUse records which teacher and room hold one of a demand's occupied
// slots, and how many hour-units are stacked on it. A repeated hour-unit is
// only admitted when it reuses the slot's holder.
type slotUse struct {
	teacher int
	room    int
	count   int
}

type search struct {
	m    *Model
	snap *Snapshot

	overlap [][]bool // slot index pairwise collision matrix

	teacherBusy  []map[int]int // teacher idx -> slot idx -> occupying hour-units
	roomBusy     []map[int]int
	sectionBusy  map[int64]map[int]int
	teacherHours []int
	demandSlots  []map[int]slotUse

	removed [][]bool
	alive   []int
	trail   []pruneRecord

	placed []Assignment

	dynBlocked []map[ConstraintKind]int

	// unplaced holds the demands blocked at the deepest frontier the search
	// reached; failDepth is that frontier's variable index.
	unplaced  map[int]bool
	failDepth int

	steps      int
	backtracks int
	budget     int
}

func newSearch(m *Model) *search {
	snap := m.Snap
	s := &search{
		m:            m,
		snap:         snap,
		teacherBusy:  make([]map[int]int, len(snap.Teachers)),
		roomBusy:     make([]map[int]int, len(snap.Rooms)),
		sectionBusy:  map[int64]map[int]int{},
		teacherHours: make([]int, len(snap.Teachers)),
		demandSlots:  make([]map[int]slotUse, len(snap.Demands)),
		removed:      make([][]bool, len(m.vars)),
		alive:        make([]int, len(m.vars)),
		dynBlocked:   make([]map[ConstraintKind]int, len(snap.Demands)),
		unplaced:     map[int]bool{},
		failDepth:    -1,
		budget:       m.Rules.MaxSearchSteps,
	}
	if s.budget <= 0 {
		s.budget = DefaultMaxSearchSteps
	}

	s.overlap = make([][]bool, len(snap.Slots))
	for i := range snap.Slots {
		s.overlap[i] = make([]bool, len(snap.Slots))
		for j := range snap.Slots {
			s.overlap[i][j] = snap.Slots[i].Overlaps(snap.Slots[j])
		}
	}

	for i := range s.teacherBusy {
		s.teacherBusy[i] = map[int]int{}
	}
	for i := range s.roomBusy {
		s.roomBusy[i] = map[int]int{}
	}
	for i := range s.demandSlots {
		s.demandSlots[i] = map[int]slotUse{}
		s.dynBlocked[i] = map[ConstraintKind]int{}
	}
	for i, v := range m.vars {
		s.removed[i] = make([]bool, len(v.cands))
		s.alive[i] = len(v.cands)
	}

	// Locked entries occupy resources before the search starts.
	for i := range m.preAssigned {
		pre := &m.preAssigned[i]
		s.occupy(pre.demand, pre.teacher, pre.room, pre.slot)
	}

	return s
}

func (s *search) assign(ctx context.Context, varIdx int) (bool, error) {
	if varIdx == len(s.m.vars) {
		return true, nil
	}
	v := &s.m.vars[varIdx]

	for ci := range v.cands {
		if s.removed[varIdx][ci] {
			continue
		}
		cand := v.cands[ci]

		s.steps++
		if s.steps > s.budget {
			return false, &TimeoutError{Steps: s.budget, Assigned: varIdx, Total: len(s.m.vars)}
		}
		if s.steps%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}

		if kind, ok := s.feasible(v.demand, cand); !ok {
			s.dynBlocked[v.demand][kind]++
			continue
		}

		s.place(v.demand, cand)
		mark := len(s.trail)

		if s.propagate(varIdx, v.demand, cand) {
			done, err := s.assign(ctx, varIdx+1)
			if err != nil {
				return false, err
			}
			if done {
				return true, nil
			}
		}

		s.undo(mark)
		s.unplace(v.demand, cand)
		s.backtracks++
	}

	s.recordFailure(varIdx, v.demand)
	return false, nil
}

// recordFailure marks a demand blocked at the given search depth. Only the
// deepest frontier is kept: demands that failed in shallower or abandoned
// branches are superseded once the search gets further, so the conflict
// report stays on the demands that blocked the best partial assignment.
func (s *search) recordFailure(depth, demand int) {
	if depth > s.failDepth {
		s.failDepth = depth
		s.unplaced = map[int]bool{}
	}
	if depth == s.failDepth {
		s.unplaced[demand] = true
	}
}

// feasible checks the hard constraints of one candidate against the current
// partial assignment, returning the violated kind on rejection.
func (s *search) feasible(demand int, c candidate) (ConstraintKind, bool) {
	repeat := false
	if use, ok := s.demandSlots[demand][c.slot]; ok {
		// A second hour-unit on an occupied slot is only admitted when
		// repeated slots are allowed and it reuses the slot's teacher and
		// room. The holder of that occupancy is then this demand itself, so
		// the same-slot collisions below are exempt.
		if !s.m.Rules.AllowRepeatedSlots || use.teacher != c.teacher || use.room != c.room {
			return ConstraintWeeklyCoverage, false
		}
		repeat = true
	}
	for slot := range s.teacherBusy[c.teacher] {
		if repeat && slot == c.slot {
			continue
		}
		if s.overlap[c.slot][slot] {
			return ConstraintTeacherOverlap, false
		}
	}
	for slot := range s.roomBusy[c.room] {
		if repeat && slot == c.slot {
			continue
		}
		if s.overlap[c.slot][slot] {
			return ConstraintRoomOverlap, false
		}
	}
	sectionID := s.snap.Demands[demand].SectionID
	for slot := range s.sectionBusy[sectionID] {
		if repeat && slot == c.slot {
			continue
		}
		if s.overlap[c.slot][slot] {
			return ConstraintSectionOverlap, false
		}
	}
	max := s.snap.Teachers[c.teacher].MaxHoursPerWeek
	if max > 0 && s.teacherHours[c.teacher]+1 > max {
		return ConstraintTeacherLoad, false
	}
	return "", true
}

func (s *search) place(demand int, c candidate) {
	s.occupy(demand, c.teacher, c.room, c.slot)
	s.placed = append(s.placed, Assignment{
		CourseID:       s.snap.Demands[demand].CourseID,
		SectionID:      s.snap.Demands[demand].SectionID,
		TeacherID:      s.snap.Teachers[c.teacher].ID,
		RoomID:         s.snap.Rooms[c.room].ID,
		TimeSlotID:     s.snap.Slots[c.slot].ID,
		PreferredSlot:  c.preferred,
		PrimaryTeacher: c.primary,
		demand:         demand,
		teacher:        c.teacher,
		room:           c.room,
		slot:           c.slot,
	})
}

func (s *search) unplace(demand int, c candidate) {
	s.placed = s.placed[:len(s.placed)-1]
	s.release(demand, c.teacher, c.room, c.slot)
}

func (s *search) occupy(demand, teacher, room, slot int) {
	s.teacherBusy[teacher][slot]++
	s.roomBusy[room][slot]++
	sectionID := s.snap.Demands[demand].SectionID
	if s.sectionBusy[sectionID] == nil {
		s.sectionBusy[sectionID] = map[int]int{}
	}
	s.sectionBusy[sectionID][slot]++
	use := s.demandSlots[demand][slot]
	if use.count == 0 {
		use.teacher, use.room = teacher, room
	}
	use.count++
	s.demandSlots[demand][slot] = use
	s.teacherHours[teacher]++
}

func (s *search) release(demand, teacher, room, slot int) {
	vacate(s.teacherBusy[teacher], slot)
	vacate(s.roomBusy[room], slot)
	vacate(s.sectionBusy[s.snap.Demands[demand].SectionID], slot)
	use := s.demandSlots[demand][slot]
	use.count--
	if use.count <= 0 {
		delete(s.demandSlots[demand], slot)
	} else {
		s.demandSlots[demand][slot] = use
	}
	s.teacherHours[teacher]--
}

// vacate drops one hour-unit of occupancy; repeated units on the same slot
// keep it busy until the last one is released.
func vacate(busy map[int]int, slot int) {
	busy[slot]--
	if busy[slot] <= 0 {
		delete(busy, slot)
	}
}

// propagate eliminates now-infeasible candidates from the variables after
// varIdx, so later steps see a reduced domain instead of re-checking every
// constraint. Returns false when some future variable's domain is wiped out.
func (s *search) propagate(varIdx, demand int, c candidate) bool {
	sectionID := s.snap.Demands[demand].SectionID
	teacherFull := false
	if max := s.snap.Teachers[c.teacher].MaxHoursPerWeek; max > 0 && s.teacherHours[c.teacher] >= max {
		teacherFull = true
	}

	ok := true
	for wi := varIdx + 1; wi < len(s.m.vars); wi++ {
		w := &s.m.vars[wi]
		for ci := range w.cands {
			if s.removed[wi][ci] {
				continue
			}
			wc := w.cands[ci]

			// The demand's own repeat of the placement just made stays alive
			// when repeated slots are allowed; feasible re-checks it against
			// the teacher's remaining hours at assign time.
			if !teacherFull && s.m.Rules.AllowRepeatedSlots && w.demand == demand &&
				wc.slot == c.slot && wc.teacher == c.teacher && wc.room == c.room {
				continue
			}

			var kind ConstraintKind
			switch {
			case wc.teacher == c.teacher && teacherFull:
				kind = ConstraintTeacherLoad
			case wc.teacher == c.teacher && s.overlap[wc.slot][c.slot]:
				kind = ConstraintTeacherOverlap
			case wc.room == c.room && s.overlap[wc.slot][c.slot]:
				kind = ConstraintRoomOverlap
			case s.snap.Demands[w.demand].SectionID == sectionID && s.overlap[wc.slot][c.slot]:
				kind = ConstraintSectionOverlap
			case w.demand == demand && !s.m.Rules.AllowRepeatedSlots && wc.slot == c.slot:
				kind = ConstraintWeeklyCoverage
			default:
				continue
			}

			s.removed[wi][ci] = true
			s.alive[wi]--
			s.trail = append(s.trail, pruneRecord{varIdx: wi, candIdx: ci})
			s.dynBlocked[w.demand][kind]++
		}
		if s.alive[wi] == 0 {
			s.recordFailure(varIdx, w.demand)
			ok = false
		}
	}
	return ok
}

func (s *search) undo(mark int) {
	for i := len(s.trail) - 1; i >= mark; i-- {
		rec := s.trail[i]
		s.removed[rec.varIdx][rec.candIdx] = false
		s.alive[rec.varIdx]++
	}
	s.trail = s.trail[:mark]
}
