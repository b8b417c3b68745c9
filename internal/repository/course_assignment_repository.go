package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

// CourseAssignmentRepository manages teacher-to-course assignments.
type CourseAssignmentRepository struct {
	queryTimer
	db *sqlx.DB
}

// NewCourseAssignmentRepository constructs a CourseAssignmentRepository.
func NewCourseAssignmentRepository(db *sqlx.DB) *CourseAssignmentRepository {
	return &CourseAssignmentRepository{db: db}
}

const assignmentColumns = "id, teacher_id, course_id, assigned_at, is_primary, is_active"

// ListActiveByCourses returns the active assignments covering any of the
// given courses.
func (r *CourseAssignmentRepository) ListActiveByCourses(ctx context.Context, courseIDs []int64) ([]models.CourseAssignment, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	defer r.timed("list_course_assignments")()
	query, args, err := sqlx.In(fmt.Sprintf(
		"SELECT %s FROM course_assignments WHERE course_id IN (?) AND is_active = TRUE ORDER BY course_id ASC, teacher_id ASC",
		assignmentColumns), courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build assignment query: %w", err)
	}
	query = r.db.Rebind(query)

	var assignments []models.CourseAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list course assignments: %w", err)
	}
	return assignments, nil
}
