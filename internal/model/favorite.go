package model

import "time"

// Favorite joins a user to a service, unique per pair. Creating one
// increments the service's favorite counter and deleting one decrements it,
// both inside the same transaction as the row change.
type Favorite struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	ServiceID uint64    `json:"service_id"`
	CreatedAt time.Time `json:"created_at"`
}
