package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

// TimeSlotRepository manages persistence for the weekly slot grid.
type TimeSlotRepository struct {
	queryTimer
	db *sqlx.DB
}

// NewTimeSlotRepository constructs a TimeSlotRepository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

const timeSlotColumns = "id, name, start_time, end_time, day_of_week, is_active, created_at"

// ListActive returns the active slots ordered by id.
func (r *TimeSlotRepository) ListActive(ctx context.Context) ([]models.TimeSlot, error) {
	defer r.timed("list_time_slots")()
	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE is_active = TRUE ORDER BY id ASC", timeSlotColumns)
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}
