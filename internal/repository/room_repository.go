package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-timetable-api/internal/models"
)

// RoomRepository manages persistence for rooms.
type RoomRepository struct {
	queryTimer
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = "id, room_number, building, floor, capacity, room_type, equipment, department_id, is_available, created_at, updated_at"

// FindByID fetches a room by ID.
func (r *RoomRepository) FindByID(ctx context.Context, id int64) (*models.Room, error) {
	defer r.timed("find_room")()
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE id = $1", roomColumns)
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListAvailable returns the rooms open for scheduling ordered by id.
func (r *RoomRepository) ListAvailable(ctx context.Context) ([]models.Room, error) {
	defer r.timed("list_rooms")()
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE is_available = TRUE ORDER BY id ASC", roomColumns)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
