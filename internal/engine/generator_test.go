package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

func fixedGenerator(at time.Time) *Generator {
	g := NewGenerator()
	g.now = func() time.Time { return at }
	return g
}

func TestGeneratorRunSuccess(t *testing.T) {
	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{testDemand(1, 1, 1)},
		Teachers:   []TeacherCapacity{testTeacher(10, 0, []int64{1})},
		Rooms:      []RoomResource{testRoom(20, 30, models.RoomClassroom)},
		Slots:      []TimeSlotResource{testSlot(30, models.Monday, 8*60, 9*60)},
	}
	snap.index()

	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	out, err := fixedGenerator(at).Run(context.Background(), snap, DefaultRules(), 500, "scheduler")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, int64(500), out.Entries[0].TimetableID)

	// The only applicable preference (primary teacher) is satisfied.
	assert.Equal(t, 1.0, out.Report.Score)
	assert.Equal(t, 1.0, out.Report.SoftSatisfied)
	assert.Equal(t, 1.0, out.Report.SoftApplicable)
	assert.Equal(t, at, out.Report.GeneratedAt)
	assert.Equal(t, "scheduler", out.Report.GeneratedBy)
	assert.Empty(t, out.Report.Conflicts)
}

func TestGeneratorRunScoreWithoutApplicablePreferences(t *testing.T) {
	// No primary assignment and no slot preferences: nothing to score, so a
	// full placement counts as a perfect run.
	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{testDemand(1, 1, 1)},
		Teachers:   []TeacherCapacity{testTeacher(10, 0, nil, 1)},
		Rooms:      []RoomResource{testRoom(20, 30, models.RoomClassroom)},
		Slots:      []TimeSlotResource{testSlot(30, models.Monday, 8*60, 9*60)},
	}
	snap.index()

	out, err := fixedGenerator(time.Now()).Run(context.Background(), snap, DefaultRules(), 500, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Report.Score)
	assert.Zero(t, out.Report.SoftApplicable)
}

func TestGeneratorRunPartialScore(t *testing.T) {
	// The teacher prefers a slot on a day they are unavailable, so the
	// preferred-slot term applies but cannot be satisfied.
	picky := testTeacher(10, 0, []int64{1})
	picky.Preferred[30] = true
	picky.Unavailable[models.Monday] = true

	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{testDemand(1, 1, 1)},
		Teachers:   []TeacherCapacity{picky},
		Rooms:      []RoomResource{testRoom(20, 30, models.RoomClassroom)},
		Slots: []TimeSlotResource{
			testSlot(30, models.Monday, 8*60, 9*60),
			testSlot(31, models.Tuesday, 8*60, 9*60),
		},
	}
	snap.index()

	out, err := fixedGenerator(time.Now()).Run(context.Background(), snap, DefaultRules(), 500, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, 1.0, out.Report.SoftSatisfied)  // primary teacher
	assert.Equal(t, 2.0, out.Report.SoftApplicable) // primary + preferred slot
	assert.InDelta(t, 0.5, out.Report.Score, 1e-9)
}

func TestGeneratorRunInfeasible(t *testing.T) {
	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{testDemand(1, 1, 2)},
		Teachers:   []TeacherCapacity{testTeacher(10, 1, nil, 1)},
		Rooms:      []RoomResource{testRoom(20, 30, models.RoomClassroom)},
		Slots: []TimeSlotResource{
			testSlot(30, models.Monday, 8*60, 9*60),
			testSlot(31, models.Tuesday, 8*60, 9*60),
		},
	}
	snap.index()

	out, err := fixedGenerator(time.Now()).Run(context.Background(), snap, DefaultRules(), 500, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, out.Status)
	assert.Empty(t, out.Entries)
	require.Len(t, out.Report.Conflicts, 1)
	assert.Equal(t, ConstraintTeacherLoad, out.Report.Conflicts[0].Kind)
}

func TestGeneratorRunTimeoutOutcome(t *testing.T) {
	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{testDemand(1, 1, 2)},
		Teachers:   []TeacherCapacity{testTeacher(10, 0, nil, 1)},
		Rooms:      []RoomResource{testRoom(20, 30, models.RoomClassroom)},
		Slots: []TimeSlotResource{
			testSlot(30, models.Monday, 8*60, 9*60),
			testSlot(31, models.Tuesday, 8*60, 9*60),
		},
	}
	snap.index()

	rules := DefaultRules()
	rules.MaxSearchSteps = 1

	out, err := fixedGenerator(time.Now()).Run(context.Background(), snap, rules, 500, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, out.Status)
	assert.Empty(t, out.Entries)
	assert.Empty(t, out.Report.Conflicts)
	assert.Contains(t, out.Report.Detail, "budget")
	assert.Equal(t, 1, out.Report.Steps)
}

func TestGeneratorRunModelError(t *testing.T) {
	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{testDemand(1, 1, 1)},
		Teachers:   []TeacherCapacity{testTeacher(10, 0, nil, 99)},
		Rooms:      []RoomResource{testRoom(20, 30, models.RoomClassroom)},
		Slots:      []TimeSlotResource{testSlot(30, models.Monday, 8*60, 9*60)},
	}
	snap.index()

	_, err := fixedGenerator(time.Now()).Run(context.Background(), snap, DefaultRules(), 500, "scheduler")
	var modelErr *ModelError
	require.ErrorAs(t, err, &modelErr)
}

func TestGeneratorRunLockedEntriesNotReEmitted(t *testing.T) {
	snap := &Snapshot{
		SemesterID: 1,
		Demands:    []CourseDemand{testDemand(1, 1, 2)},
		Teachers:   []TeacherCapacity{testTeacher(10, 0, []int64{1})},
		Rooms:      []RoomResource{testRoom(20, 30, models.RoomClassroom)},
		Slots: []TimeSlotResource{
			testSlot(30, models.Monday, 8*60, 9*60),
			testSlot(31, models.Tuesday, 8*60, 9*60),
		},
		Locked: []LockedEntry{
			{CourseID: 1, SectionID: 1, TeacherID: 10, RoomID: 20, TimeSlotID: 31},
		},
	}
	snap.index()

	out, err := fixedGenerator(time.Now()).Run(context.Background(), snap, DefaultRules(), 500, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)

	// Only the newly decided hour becomes a row; the locked one already
	// exists in storage, yet both count toward the soft score.
	require.Len(t, out.Entries, 1)
	assert.Equal(t, int64(30), out.Entries[0].TimeSlotID)
	assert.Equal(t, 2.0, out.Report.SoftApplicable)
	assert.Equal(t, 2.0, out.Report.SoftSatisfied)
}
