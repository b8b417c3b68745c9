package models

import "time"

// Room is a physical teaching space.
type Room struct {
	ID           int64      `db:"id" json:"id"`
	RoomNumber   string     `db:"room_number" json:"room_number"`
	Building     string     `db:"building" json:"building"`
	Floor        *int       `db:"floor" json:"floor,omitempty"`
	Capacity     int        `db:"capacity" json:"capacity"`
	RoomType     RoomType   `db:"room_type" json:"room_type"`
	Equipment    StringList `db:"equipment" json:"equipment"`
	DepartmentID *int64     `db:"department_id" json:"department_id,omitempty"`
	IsAvailable  bool       `db:"is_available" json:"is_available"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// HasEquipment reports whether every requested item is present.
func (r *Room) HasEquipment(required []string) bool {
	if len(required) == 0 {
		return true
	}
	available := make(map[string]struct{}, len(r.Equipment))
	for _, item := range r.Equipment {
		available[item] = struct{}{}
	}
	for _, item := range required {
		if _, ok := available[item]; !ok {
			return false
		}
	}
	return true
}
