package models

import (
	"fmt"
	"time"
)

// TimeSlot is one fixed placement choice in the weekly grid. Slots are the
// atomic scheduling granularity: one slot carries one hour-unit of teaching.
type TimeSlot struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	DayOfWeek DayOfWeek `db:"day_of_week" json:"day_of_week"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Minutes parses the start and end clock times into minutes since midnight.
func (s *TimeSlot) Minutes() (start, end int, err error) {
	start, err = clockMinutes(s.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("time slot %d start: %w", s.ID, err)
	}
	end, err = clockMinutes(s.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("time slot %d end: %w", s.ID, err)
	}
	if start >= end {
		return 0, 0, fmt.Errorf("time slot %d: start %q is not before end %q", s.ID, s.StartTime, s.EndTime)
	}
	return start, end, nil
}

func clockMinutes(raw string) (int, error) {
	// Postgres time columns scan as "15:04:05"; accept the short form too.
	t, err := time.Parse("15:04:05", raw)
	if err != nil {
		t, err = time.Parse("15:04", raw)
	}
	if err != nil {
		return 0, fmt.Errorf("parse clock time %q: %w", raw, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
