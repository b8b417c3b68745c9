package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

// TeacherRepository manages persistence for teacher records.
type TeacherRepository struct {
	queryTimer
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = `id, employee_id, first_name, last_name, email, phone, department_id,
specializations, max_hours_per_week, preferred_time_slots, unavailable_days, is_active, created_at, updated_at`

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	defer r.timed("find_teacher")()
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ListActiveByIDs returns the active teachers among the given ids.
func (r *TeacherRepository) ListActiveByIDs(ctx context.Context, ids []int64) ([]models.Teacher, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	defer r.timed("list_teachers")()
	query, args, err := sqlx.In(fmt.Sprintf(
		"SELECT %s FROM teachers WHERE id IN (?) AND is_active = TRUE ORDER BY id ASC", teacherColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build teacher query: %w", err)
	}
	query = r.db.Rebind(query)

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}
