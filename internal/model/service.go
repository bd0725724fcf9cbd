package model

import "time"

// Service statuses stored in services.status. Search only ever returns
// active services; soft deletion moves a service to closed.
const (
	ServiceActive   = "active"
	ServiceInactive = "inactive"
	ServicePending  = "pending"
	ServiceClosed   = "closed"
)

// ServiceType is reference data grouping services (restaurant, pharmacy, ...).
// It changes rarely and is cached with a long TTL.
type ServiceType struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Icon        *string   `json:"icon"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Service represents a geotagged listing in the `services` table. Besides the
// latitude/longitude pair the table keeps a POINT column (SRID 4326) that is
// re-derived from the pair on every write and indexed for radius pruning; the
// two must never diverge. ViewCount and FavoriteCount are monotonic counters
// mutated as side effects (reads and favorite changes) and are not part of
// cached search results.
//
// Tags is a comma-separated blob; tag filters substring-match against it.
type Service struct {
	ID            uint64     `json:"id"`
	Name          string     `json:"name"`
	Description   *string    `json:"description"`
	ServiceTypeID uint64     `json:"service_type_id"`
	Latitude      float64    `json:"latitude"`
	Longitude     float64    `json:"longitude"`
	Address       *string    `json:"address"`
	City          *string    `json:"city"`
	Country       *string    `json:"country"`
	Phone         *string    `json:"phone"`
	Email         *string    `json:"email"`
	Website       *string    `json:"website"`
	Rating        float64    `json:"rating"`
	ReviewCount   int64      `json:"review_count"`
	Tags          *string    `json:"tags"`
	Status        string     `json:"status"`
	IsVerified    bool       `json:"is_verified"`
	IsFeatured    bool       `json:"is_featured"`
	ViewCount     int64      `json:"view_count"`
	FavoriteCount int64      `json:"favorite_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"-"`
}
