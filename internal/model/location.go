package model

import "time"

// Location types stored in user_locations.type.
const (
	LocationHome  = "home"
	LocationWork  = "work"
	LocationOther = "other"
)

// UserLocation is a tracked position in the `user_locations` table. Like
// services, the table keeps a POINT column derived from the pair on every
// write. At most one row per user carries IsDefault=true; that row is the
// user's "current" location and the only one visible to nearby-user
// discovery.
type UserLocation struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Type      string    `json:"type"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
