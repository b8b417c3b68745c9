package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

// TimetableEntryRepository manages the placement rows of timetables.
type TimetableEntryRepository struct {
	queryTimer
	db *sqlx.DB
}

// NewTimetableEntryRepository constructs a TimetableEntryRepository.
func NewTimetableEntryRepository(db *sqlx.DB) *TimetableEntryRepository {
	return &TimetableEntryRepository{db: db}
}

func (r *TimetableEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const entryColumns = "id, timetable_id, course_id, teacher_id, room_id, section_id, time_slot_id, notes, created_at, updated_at"

// ListByTimetable returns a timetable's entries in deterministic order.
func (r *TimetableEntryRepository) ListByTimetable(ctx context.Context, timetableID int64) ([]models.TimetableEntry, error) {
	defer r.timed("list_entries")()
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE timetable_id = $1 ORDER BY section_id ASC, time_slot_id ASC, course_id ASC", entryColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListDetails returns entries joined with display names for rendering a
// weekly grid, optionally narrowed to one teacher or section.
func (r *TimetableEntryRepository) ListDetails(ctx context.Context, timetableID int64, filter models.EntryFilter) ([]models.TimetableEntryDetail, error) {
	defer r.timed("list_entry_details")()
	query := `SELECT e.id, e.timetable_id, e.course_id, e.teacher_id, e.room_id, e.section_id, e.time_slot_id, e.notes, e.created_at, e.updated_at,
c.course_code, c.name AS course_name,
t.first_name || ' ' || t.last_name AS teacher_name,
r.room_number, sec.name AS section_name,
ts.name AS slot_name, ts.day_of_week, ts.start_time, ts.end_time
FROM timetable_entries e
JOIN courses c ON c.id = e.course_id
JOIN teachers t ON t.id = e.teacher_id
JOIN rooms r ON r.id = e.room_id
JOIN sections sec ON sec.id = e.section_id
JOIN time_slots ts ON ts.id = e.time_slot_id
WHERE e.timetable_id = $1`
	args := []interface{}{timetableID}
	if filter.TeacherID != nil {
		args = append(args, *filter.TeacherID)
		query += fmt.Sprintf(" AND e.teacher_id = $%d", len(args))
	}
	if filter.SectionID != nil {
		args = append(args, *filter.SectionID)
		query += fmt.Sprintf(" AND e.section_id = $%d", len(args))
	}
	query += " ORDER BY sec.name ASC, ts.day_of_week ASC, ts.start_time ASC, c.course_code ASC"

	var details []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable entry details: %w", err)
	}
	return details, nil
}

// DeleteByTimetable clears a timetable's entries inside the given transaction.
func (r *TimetableEntryRepository) DeleteByTimetable(ctx context.Context, exec sqlx.ExtContext, timetableID int64) error {
	defer r.timed("delete_entries")()
	if _, err := r.exec(exec).ExecContext(ctx, "DELETE FROM timetable_entries WHERE timetable_id = $1", timetableID); err != nil {
		return fmt.Errorf("delete timetable entries: %w", err)
	}
	return nil
}

// InsertBatch writes the generated entries inside the given transaction.
func (r *TimetableEntryRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}
	defer r.timed("insert_entries")()
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO timetable_entries (timetable_id, course_id, teacher_id, room_id, section_id, time_slot_id, notes, created_at, updated_at)
VALUES (:timetable_id, :course_id, :teacher_id, :room_id, :section_id, :time_slot_id, :notes, :created_at, :updated_at)`

	for i := range entries {
		entry := &entries[i]
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}
	return nil
}
