package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	queryTimer
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, course_code, name, description, credits, course_type, hours_per_week,
required_room_type, required_equipment, semester_number, department_id, prerequisites, is_active, created_at, updated_at`

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	defer r.timed("find_course")()
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListActiveForSemester returns the active courses a department runs in the
// given semester number, ordered by course code.
func (r *CourseRepository) ListActiveForSemester(ctx context.Context, departmentID int64, semesterNumber int) ([]models.Course, error) {
	defer r.timed("list_courses")()
	query := fmt.Sprintf(`SELECT %s FROM courses
WHERE department_id = $1 AND semester_number = $2 AND is_active = TRUE
ORDER BY course_code ASC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, departmentID, semesterNumber); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}
