package engine

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

type semesterReader interface {
	FindByID(ctx context.Context, id int64) (*models.Semester, error)
}

type sectionLister interface {
	ListActiveBySemester(ctx context.Context, semesterID int64) ([]models.Section, error)
}

type courseLister interface {
	ListActiveForSemester(ctx context.Context, departmentID int64, semesterNumber int) ([]models.Course, error)
}

type assignmentLister interface {
	ListActiveByCourses(ctx context.Context, courseIDs []int64) ([]models.CourseAssignment, error)
}

type teacherLister interface {
	ListActiveByIDs(ctx context.Context, ids []int64) ([]models.Teacher, error)
}

type roomLister interface {
	ListAvailable(ctx context.Context) ([]models.Room, error)
}

type timeSlotLister interface {
	ListActive(ctx context.Context) ([]models.TimeSlot, error)
}

type entryLister interface {
	ListByTimetable(ctx context.Context, timetableID int64) ([]models.TimetableEntry, error)
}

// Loader reads one semester's scheduling universe into an immutable Snapshot.
type Loader struct {
	semesters   semesterReader
	sections    sectionLister
	courses     courseLister
	assignments assignmentLister
	teachers    teacherLister
	rooms       roomLister
	slots       timeSlotLister
	entries     entryLister
	logger      *zap.Logger
}

// NewLoader wires the read-only persistence collaborators.
func NewLoader(
	semesters semesterReader,
	sections sectionLister,
	courses courseLister,
	assignments assignmentLister,
	teachers teacherLister,
	rooms roomLister,
	slots timeSlotLister,
	entries entryLister,
	logger *zap.Logger,
) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		semesters:   semesters,
		sections:    sections,
		courses:     courses,
		assignments: assignments,
		teachers:    teachers,
		rooms:       rooms,
		slots:       slots,
		entries:     entries,
		logger:      logger,
	}
}

// LoadOptions selects optional snapshot content.
type LoadOptions struct {
	// TimetableID scopes locked entries when LockExistingEntries is set.
	TimetableID         int64
	LockExistingEntries bool
}

// Load builds the working set for a semester. It performs the only reads of a
// generation run; everything after it operates on the in-memory snapshot.
func (l *Loader) Load(ctx context.Context, semesterID int64, opts LoadOptions) (*Snapshot, error) {
	semester, err := l.semesters.FindByID(ctx, semesterID)
	if err != nil {
		return nil, fmt.Errorf("load semester %d: %w", semesterID, err)
	}

	sections, err := l.sections.ListActiveBySemester(ctx, semesterID)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	if len(sections) == 0 {
		return nil, &SnapshotError{SemesterID: semesterID, Reason: "no active sections"}
	}

	slots, err := l.slots.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load time slots: %w", err)
	}
	if len(slots) == 0 {
		return nil, &SnapshotError{SemesterID: semesterID, Reason: "no active time slots"}
	}

	courses, err := l.courses.ListActiveForSemester(ctx, semester.DepartmentID, semester.SemesterNumber)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	if len(courses) == 0 {
		return nil, &SnapshotError{SemesterID: semesterID, Reason: "no active courses for semester number"}
	}

	snap := &Snapshot{SemesterID: semesterID}

	for _, section := range sections {
		for _, course := range courses {
			snap.Demands = append(snap.Demands, CourseDemand{
				CourseID:          course.ID,
				SectionID:         section.ID,
				CourseCode:        course.CourseCode,
				SectionName:       section.Name,
				CourseType:        course.CourseType,
				HoursPerWeek:      course.HoursPerWeek,
				RequiredRoomType:  course.RequiredRoomType,
				RequiredEquipment: course.RequiredEquipment,
				SectionCapacity:   section.Capacity,
			})
		}
	}

	courseIDs := lo.Map(courses, func(c models.Course, _ int) int64 { return c.ID })
	assignments, err := l.assignments.ListActiveByCourses(ctx, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("load course assignments: %w", err)
	}

	teacherIDs := lo.Uniq(lo.Map(assignments, func(a models.CourseAssignment, _ int) int64 { return a.TeacherID }))
	teachers, err := l.teachers.ListActiveByIDs(ctx, teacherIDs)
	if err != nil {
		return nil, fmt.Errorf("load teachers: %w", err)
	}

	eligible := map[int64]map[int64]bool{}
	primary := map[int64]map[int64]bool{}
	for _, a := range assignments {
		if eligible[a.TeacherID] == nil {
			eligible[a.TeacherID] = map[int64]bool{}
			primary[a.TeacherID] = map[int64]bool{}
		}
		eligible[a.TeacherID][a.CourseID] = true
		if a.IsPrimary {
			primary[a.TeacherID][a.CourseID] = true
		}
	}

	for _, t := range teachers {
		capacity := TeacherCapacity{
			ID:              t.ID,
			Name:            t.FirstName + " " + t.LastName,
			MaxHoursPerWeek: t.MaxHoursPerWeek,
			Eligible:        eligible[t.ID],
			Primary:         primary[t.ID],
			Unavailable:     map[models.DayOfWeek]bool{},
			Preferred:       map[int64]bool{},
		}
		for _, raw := range t.UnavailableDays {
			day := models.DayOfWeek(raw)
			if day.Valid() {
				capacity.Unavailable[day] = true
			}
		}
		for _, slotID := range t.PreferredTimeSlots {
			capacity.Preferred[slotID] = true
		}
		snap.Teachers = append(snap.Teachers, capacity)
	}

	rooms, err := l.rooms.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	for _, r := range rooms {
		equipment := make(map[string]bool, len(r.Equipment))
		for _, item := range r.Equipment {
			equipment[item] = true
		}
		snap.Rooms = append(snap.Rooms, RoomResource{
			ID:         r.ID,
			RoomNumber: r.RoomNumber,
			Capacity:   r.Capacity,
			RoomType:   r.RoomType,
			Equipment:  equipment,
		})
	}

	for _, raw := range slots {
		start, end, err := raw.Minutes()
		if err != nil {
			return nil, err
		}
		snap.Slots = append(snap.Slots, TimeSlotResource{
			ID:       raw.ID,
			Name:     raw.Name,
			Day:      raw.DayOfWeek,
			StartMin: start,
			EndMin:   end,
		})
	}

	if opts.LockExistingEntries && opts.TimetableID != 0 {
		existing, err := l.entries.ListByTimetable(ctx, opts.TimetableID)
		if err != nil {
			return nil, fmt.Errorf("load locked entries: %w", err)
		}
		snap.Locked = lo.Map(existing, func(e models.TimetableEntry, _ int) LockedEntry {
			return LockedEntry{
				CourseID:   e.CourseID,
				SectionID:  e.SectionID,
				TeacherID:  e.TeacherID,
				RoomID:     e.RoomID,
				TimeSlotID: e.TimeSlotID,
			}
		})
	}

	snap.index()

	l.logger.Debug("snapshot loaded",
		zap.Int64("semester_id", semesterID),
		zap.Int("demands", len(snap.Demands)),
		zap.Int("teachers", len(snap.Teachers)),
		zap.Int("rooms", len(snap.Rooms)),
		zap.Int("slots", len(snap.Slots)),
		zap.Int("locked", len(snap.Locked)),
	)

	return snap, nil
}
