package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

// SemesterRepository manages persistence for semesters.
type SemesterRepository struct {
	queryTimer
	db *sqlx.DB
}

// NewSemesterRepository constructs a SemesterRepository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

const semesterColumns = "id, name, year, semester_number, start_date, end_date, department_id, is_active, created_at, updated_at"

// FindByID fetches a semester by ID.
func (r *SemesterRepository) FindByID(ctx context.Context, id int64) (*models.Semester, error) {
	defer r.timed("find_semester")()
	query := fmt.Sprintf("SELECT %s FROM semesters WHERE id = $1", semesterColumns)
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// List returns semesters of a department, newest first.
func (r *SemesterRepository) List(ctx context.Context, departmentID int64, page models.ListQuery) ([]models.Semester, int, error) {
	defer r.timed("list_semesters")()
	query := fmt.Sprintf("SELECT %s FROM semesters WHERE department_id = $1 ORDER BY year DESC, semester_number DESC LIMIT $2 OFFSET $3", semesterColumns)
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, departmentID, page.Limit(), page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list semesters: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM semesters WHERE department_id = $1", departmentID); err != nil {
		return nil, 0, fmt.Errorf("count semesters: %w", err)
	}
	return semesters, total, nil
}
