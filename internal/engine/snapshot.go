package engine

import (
	"sort"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

// CourseDemand is the need for one course to be delivered to one section for
// a number of weekly hour-units.
type CourseDemand struct {
	CourseID          int64
	SectionID         int64
	CourseCode        string
	SectionName       string
	CourseType        models.CourseType
	HoursPerWeek      int
	RequiredRoomType  *models.RoomType
	RequiredEquipment []string
	SectionCapacity   int
}

// TeacherCapacity is the read-only scheduling view of a teacher.
type TeacherCapacity struct {
	ID              int64
	Name            string
	MaxHoursPerWeek int
	Eligible        map[int64]bool // course ids from active assignments
	Primary         map[int64]bool // course ids where is_primary
	Unavailable     map[models.DayOfWeek]bool
	Preferred       map[int64]bool // time slot ids
}

// RoomResource is the read-only scheduling view of a room.
type RoomResource struct {
	ID         int64
	RoomNumber string
	Capacity   int
	RoomType   models.RoomType
	Equipment  map[string]bool
}

// Fits reports whether the room can host the demand.
func (r *RoomResource) Fits(d *CourseDemand) bool {
	if r.Capacity < d.SectionCapacity {
		return false
	}
	if d.RequiredRoomType != nil && r.RoomType != *d.RequiredRoomType {
		return false
	}
	for _, item := range d.RequiredEquipment {
		if !r.Equipment[item] {
			return false
		}
	}
	return true
}

// TimeSlotResource is one fixed placement choice, times in minutes since
// midnight.
type TimeSlotResource struct {
	ID       int64
	Name     string
	Day      models.DayOfWeek
	StartMin int
	EndMin   int
}

// Overlaps reports whether two slots collide on the weekly grid.
func (s TimeSlotResource) Overlaps(o TimeSlotResource) bool {
	if s.Day != o.Day {
		return false
	}
	return s.StartMin < o.EndMin && o.StartMin < s.EndMin
}

// LockedEntry is a previously published placement treated as fixed when
// lock_existing_entries is set.
type LockedEntry struct {
	CourseID   int64
	SectionID  int64
	TeacherID  int64
	RoomID     int64
	TimeSlotID int64
}

// Snapshot is the immutable working set of one generation run. Slices are
// sorted by id so every traversal is deterministic.
type Snapshot struct {
	SemesterID int64
	Demands    []CourseDemand
	Teachers   []TeacherCapacity
	Rooms      []RoomResource
	Slots      []TimeSlotResource
	Locked     []LockedEntry

	teacherIdx map[int64]int
	roomIdx    map[int64]int
	slotIdx    map[int64]int
}

func (s *Snapshot) index() {
	sort.Slice(s.Demands, func(i, j int) bool {
		if s.Demands[i].SectionID == s.Demands[j].SectionID {
			return s.Demands[i].CourseID < s.Demands[j].CourseID
		}
		return s.Demands[i].SectionID < s.Demands[j].SectionID
	})
	sort.Slice(s.Teachers, func(i, j int) bool { return s.Teachers[i].ID < s.Teachers[j].ID })
	sort.Slice(s.Rooms, func(i, j int) bool { return s.Rooms[i].ID < s.Rooms[j].ID })
	sort.Slice(s.Slots, func(i, j int) bool { return s.Slots[i].ID < s.Slots[j].ID })

	s.teacherIdx = make(map[int64]int, len(s.Teachers))
	for i, t := range s.Teachers {
		s.teacherIdx[t.ID] = i
	}
	s.roomIdx = make(map[int64]int, len(s.Rooms))
	for i, r := range s.Rooms {
		s.roomIdx[r.ID] = i
	}
	s.slotIdx = make(map[int64]int, len(s.Slots))
	for i, sl := range s.Slots {
		s.slotIdx[sl.ID] = i
	}
}

// TeacherByID resolves a teacher position in the snapshot.
func (s *Snapshot) TeacherByID(id int64) (int, bool) {
	i, ok := s.teacherIdx[id]
	return i, ok
}

// RoomByID resolves a room position in the snapshot.
func (s *Snapshot) RoomByID(id int64) (int, bool) {
	i, ok := s.roomIdx[id]
	return i, ok
}

// SlotByID resolves a slot position in the snapshot.
func (s *Snapshot) SlotByID(id int64) (int, bool) {
	i, ok := s.slotIdx[id]
	return i, ok
}
