package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

// SectionRepository manages persistence for sections.
type SectionRepository struct {
	queryTimer
	db *sqlx.DB
}

// NewSectionRepository constructs a SectionRepository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionColumns = "id, name, capacity, semester_id, is_active, created_at, updated_at"

// FindByID fetches a section by ID.
func (r *SectionRepository) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	defer r.timed("find_section")()
	query := fmt.Sprintf("SELECT %s FROM sections WHERE id = $1", sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// ListActiveBySemester returns the active sections of a semester ordered by name.
func (r *SectionRepository) ListActiveBySemester(ctx context.Context, semesterID int64) ([]models.Section, error) {
	defer r.timed("list_sections")()
	query := fmt.Sprintf("SELECT %s FROM sections WHERE semester_id = $1 AND is_active = TRUE ORDER BY name ASC", sectionColumns)
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, semesterID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}
