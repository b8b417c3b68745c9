package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

// TimetableRepository manages timetable records and their lifecycle fields.
type TimetableRepository struct {
	queryTimer
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const timetableColumns = "id, name, semester_id, status, generation_rules, generation_report, created_at, updated_at, generated_at, generated_by"

// Create inserts a draft timetable and returns it with the generated id.
func (r *TimetableRepository) Create(ctx context.Context, timetable *models.Timetable) error {
	defer r.timed("create_timetable")()
	now := time.Now().UTC()
	timetable.CreatedAt = now
	timetable.UpdatedAt = now
	if timetable.Status == "" {
		timetable.Status = models.TimetableDraft
	}
	if timetable.GenerationRules == nil {
		timetable.GenerationRules = models.JSONMap{}
	}

	const query = `INSERT INTO timetables (name, semester_id, status, generation_rules, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &timetable.ID, query,
		timetable.Name, timetable.SemesterID, timetable.Status, timetable.GenerationRules,
		timetable.CreatedAt, timetable.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}
	return nil
}

// FindByID fetches a timetable by ID.
func (r *TimetableRepository) FindByID(ctx context.Context, id int64) (*models.Timetable, error) {
	defer r.timed("find_timetable")()
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE id = $1", timetableColumns)
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// ListBySemester returns a semester's timetables, newest first.
func (r *TimetableRepository) ListBySemester(ctx context.Context, semesterID int64, page models.ListQuery) ([]models.Timetable, int, error) {
	defer r.timed("list_timetables")()
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE semester_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3", timetableColumns)
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, semesterID, page.Limit(), page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM timetables WHERE semester_id = $1", semesterID); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}
	return timetables, total, nil
}

// UpdateStatus moves a timetable to a new lifecycle phase.
func (r *TimetableRepository) UpdateStatus(ctx context.Context, id int64, status models.TimetableStatus) error {
	defer r.timed("update_timetable_status")()
	const query = "UPDATE timetables SET status = $1, updated_at = $2 WHERE id = $3"
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update timetable status: %w", err)
	}
	return nil
}

// SaveGenerationResult stores the report and attribution of a finished run.
// Pass the surrounding transaction so the report lands atomically with the
// replaced entries.
func (r *TimetableRepository) SaveGenerationResult(ctx context.Context, exec sqlx.ExtContext, id int64, report models.JSONMap, generatedAt time.Time, generatedBy string) error {
	defer r.timed("save_generation_result")()
	const query = `UPDATE timetables
SET generation_report = $1, generated_at = $2, generated_by = $3, updated_at = $4
WHERE id = $5`
	if _, err := r.exec(exec).ExecContext(ctx, query, report, generatedAt, generatedBy, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("save generation result: %w", err)
	}
	return nil
}

// Delete removes a timetable; entries cascade at the schema level.
func (r *TimetableRepository) Delete(ctx context.Context, id int64) error {
	defer r.timed("delete_timetable")()
	if _, err := r.db.ExecContext(ctx, "DELETE FROM timetables WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	return nil
}
