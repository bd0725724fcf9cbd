// Package queue defines message payloads exchanged over the message broker.
package queue

// FavoriteCreatedEvent is published when a user favorites a service. It
// carries enough context for downstream consumers to log, notify, or feed
// analytics without querying the primary database.
type FavoriteCreatedEvent struct {
	FavoriteID    uint64  `json:"favorite_id"`
	UserID        uint64  `json:"user_id"`
	ServiceID     uint64  `json:"service_id"`
	ServiceName   string  `json:"service_name"`
	ServiceTypeID uint64  `json:"service_type_id"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	FavoriteCount int64   `json:"favorite_count"`
	CreatedAt     string  `json:"created_at"`
}
