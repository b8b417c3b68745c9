package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

func TestBuildFailsWithoutEligibleTeacher(t *testing.T) {
	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{testDemand(1, 1, 1)},
		Teachers:   []TeacherCapacity{testTeacher(10, 0, nil, 99)}, // assigned elsewhere
		Rooms:      []RoomResource{testRoom(20, 30, models.RoomClassroom)},
		Slots:      []TimeSlotResource{testSlot(30, models.Monday, 8*60, 9*60)},
	}
	snap.index()

	_, err := Build(snap, DefaultRules())
	var modelErr *ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, ConstraintTeacherEligibility, modelErr.Kind)
	assert.Equal(t, int64(1), modelErr.CourseID)
	assert.Equal(t, int64(1), modelErr.SectionID)
}

func TestBuildFailsWithoutFittingRoom(t *testing.T) {
	lab := models.RoomLab
	demand := testDemand(1, 1, 1)
	demand.RequiredRoomType = &lab
	demand.RequiredEquipment = []string{"fume hood"}

	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{demand},
		Teachers:   []TeacherCapacity{testTeacher(10, 0, nil, 1)},
		Rooms: []RoomResource{
			testRoom(20, 30, models.RoomClassroom),
			testRoom(21, 30, models.RoomLab), // right type, missing equipment
		},
		Slots: []TimeSlotResource{testSlot(30, models.Monday, 8*60, 9*60)},
	}
	snap.index()

	_, err := Build(snap, DefaultRules())
	var modelErr *ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, ConstraintRoomFitness, modelErr.Kind)
}

func TestBuildCandidateOrdering(t *testing.T) {
	preferring := testTeacher(10, 0, []int64{1})
	preferring.Preferred[31] = true
	secondary := testTeacher(11, 0, nil, 1)

	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{testDemand(1, 1, 1)},
		Teachers:   []TeacherCapacity{preferring, secondary},
		Rooms:      []RoomResource{testRoom(20, 30, models.RoomClassroom)},
		Slots: []TimeSlotResource{
			testSlot(30, models.Monday, 8*60, 9*60),
			testSlot(31, models.Tuesday, 8*60, 9*60),
		},
	}
	snap.index()

	m, err := Build(snap, DefaultRules())
	require.NoError(t, err)
	require.Len(t, m.vars, 1)

	cands := m.vars[0].cands
	require.Len(t, cands, 4)

	// Preferred slot first, then primary teacher, then ascending slot id.
	first := cands[0]
	assert.True(t, first.preferred)
	assert.Equal(t, int64(10), snap.Teachers[first.teacher].ID)
	assert.Equal(t, int64(31), snap.Slots[first.slot].ID)

	second := cands[1]
	assert.False(t, second.preferred)
	assert.True(t, second.primary)
	assert.Equal(t, int64(30), snap.Slots[second.slot].ID)
}

func TestBuildMostConstrainedFirst(t *testing.T) {
	lab := models.RoomLab
	narrow := testDemand(2, 1, 1)
	narrow.RequiredRoomType = &lab

	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{testDemand(1, 1, 1), narrow},
		Teachers:   []TeacherCapacity{testTeacher(10, 0, nil, 1, 2)},
		Rooms: []RoomResource{
			testRoom(20, 30, models.RoomClassroom),
			testRoom(21, 30, models.RoomClassroom),
			testRoom(22, 30, models.RoomLab),
		},
		Slots: []TimeSlotResource{
			testSlot(30, models.Monday, 8*60, 9*60),
			testSlot(31, models.Tuesday, 8*60, 9*60),
		},
	}
	snap.index()

	m, err := Build(snap, DefaultRules())
	require.NoError(t, err)
	require.Len(t, m.vars, 2)

	// The lab-bound course has fewer candidates and is decided first.
	assert.Equal(t, int64(2), snap.Demands[m.vars[0].demand].CourseID)
	assert.Less(t, len(m.vars[0].cands), len(m.vars[1].cands))
}

func TestBuildLockedEntrySkipsStaleDemand(t *testing.T) {
	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{testDemand(1, 1, 1)},
		Teachers:   []TeacherCapacity{testTeacher(10, 0, nil, 1)},
		Rooms:      []RoomResource{testRoom(20, 30, models.RoomClassroom)},
		Slots:      []TimeSlotResource{testSlot(30, models.Monday, 8*60, 9*60)},
		Locked: []LockedEntry{
			// Course 9 no longer runs this semester; its old entry is dropped.
			{CourseID: 9, SectionID: 1, TeacherID: 10, RoomID: 20, TimeSlotID: 30},
		},
	}
	snap.index()

	m, err := Build(snap, DefaultRules())
	require.NoError(t, err)
	assert.Empty(t, m.preAssigned)
	assert.Len(t, m.vars, 1)
}

func TestBuildLockedEntryDanglingReference(t *testing.T) {
	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{testDemand(1, 1, 1)},
		Teachers:   []TeacherCapacity{testTeacher(10, 0, nil, 1)},
		Rooms:      []RoomResource{testRoom(20, 30, models.RoomClassroom)},
		Slots:      []TimeSlotResource{testSlot(30, models.Monday, 8*60, 9*60)},
		Locked: []LockedEntry{
			{CourseID: 1, SectionID: 1, TeacherID: 77, RoomID: 20, TimeSlotID: 30},
		},
	}
	snap.index()

	_, err := Build(snap, DefaultRules())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown teacher 77")
}
