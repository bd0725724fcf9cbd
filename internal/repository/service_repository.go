package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ryan2kptit/location-based-services-search/internal/model"
)

// ServiceRepo persists geotagged service listings. The `services` table
// carries both the latitude/longitude pair and a POINT column (SRID 4326)
// used by the spatial index; every write that moves a service re-derives the
// POINT from the pair so the two can never diverge.
type ServiceRepo struct{ DB *sql.DB }

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{DB: db} }

const serviceColumns = `s.id, s.name, s.description, s.service_type_id, s.latitude, s.longitude,
	s.address, s.city, s.country, s.phone, s.email, s.website, s.rating, s.review_count,
	s.tags, s.status, s.is_verified, s.is_featured, s.view_count, s.favorite_count,
	s.created_at, s.updated_at`

func scanService(scan func(dest ...any) error) (model.Service, error) {
	var s model.Service
	err := scan(&s.ID, &s.Name, &s.Description, &s.ServiceTypeID, &s.Latitude, &s.Longitude,
		&s.Address, &s.City, &s.Country, &s.Phone, &s.Email, &s.Website, &s.Rating, &s.ReviewCount,
		&s.Tags, &s.Status, &s.IsVerified, &s.IsFeatured, &s.ViewCount, &s.FavoriteCount,
		&s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

// Create inserts a new listing after verifying its service type exists.
// POINT(X, Y) takes (longitude, latitude) in geographic order.
func (r *ServiceRepo) Create(ctx context.Context, s model.Service) (uint64, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM service_types WHERE id=? LIMIT 1`, s.ServiceTypeID).Scan(&one)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO services (name, description, service_type_id, latitude, longitude, location,
		   address, city, country, phone, email, website, tags, status)
		 VALUES (?,?,?,?,?,ST_SRID(POINT(?,?),4326),?,?,?,?,?,?,?,?)`,
		s.Name, s.Description, s.ServiceTypeID, s.Latitude, s.Longitude,
		s.Longitude, s.Latitude,
		s.Address, s.City, s.Country, s.Phone, s.Email, s.Website, s.Tags, model.ServiceActive)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a non-deleted listing.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services s WHERE s.id=? AND s.deleted_at IS NULL LIMIT 1`, id)
	return scanService(row.Scan)
}

// IncrementView bumps the monotonic view counter. The counter is a read side
// effect and does not invalidate cached search results.
func (r *ServiceRepo) IncrementView(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE services SET view_count=view_count+1 WHERE id=? AND deleted_at IS NULL`, id)
	return err
}

// List returns active listings newest-first with offset pagination.
func (r *ServiceRepo) List(ctx context.Context, page, pageSize int) ([]model.Service, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM services s WHERE s.status=? AND s.deleted_at IS NULL`,
		model.ServiceActive).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services s
		 WHERE s.status=? AND s.deleted_at IS NULL
		 ORDER BY s.created_at DESC, s.id DESC LIMIT ? OFFSET ?`,
		model.ServiceActive, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Service, 0, pageSize)
	for rows.Next() {
		s, err := scanService(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// Popular returns a page of active listings ordered by engagement: favorite
// count first, then view count, then rating, with id as the tie-break.
func (r *ServiceRepo) Popular(ctx context.Context, page, pageSize int) ([]model.Service, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM services s WHERE s.status=? AND s.deleted_at IS NULL`,
		model.ServiceActive).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services s
		 WHERE s.status=? AND s.deleted_at IS NULL
		 ORDER BY s.favorite_count DESC, s.view_count DESC, s.rating DESC, s.id ASC
		 LIMIT ? OFFSET ?`,
		model.ServiceActive, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Service, 0, pageSize)
	for rows.Next() {
		s, err := scanService(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// ServiceUpdate carries the optional fields of an update; nil means "leave
// unchanged". Latitude and Longitude must be set together so the POINT column
// can be re-derived with the pair.
type ServiceUpdate struct {
	Name          *string
	Description   *string
	ServiceTypeID *uint64
	Latitude      *float64
	Longitude     *float64
	Address       *string
	City          *string
	Country       *string
	Phone         *string
	Email         *string
	Website       *string
	Tags          *string
	Status        *string
}

// Update applies the set fields and returns the updated row.
func (r *ServiceRepo) Update(ctx context.Context, id uint64, u ServiceUpdate) (model.Service, error) {
	if u.ServiceTypeID != nil {
		var one int
		err := r.DB.QueryRowContext(ctx,
			`SELECT 1 FROM service_types WHERE id=? LIMIT 1`, *u.ServiceTypeID).Scan(&one)
		if err == sql.ErrNoRows {
			return model.Service{}, ErrNotFound
		}
		if err != nil {
			return model.Service{}, err
		}
	}

	sets := []string{}
	args := []any{}
	set := func(col string, v any) {
		sets = append(sets, col+"=?")
		args = append(args, v)
	}
	if u.Name != nil {
		set("name", *u.Name)
	}
	if u.Description != nil {
		set("description", *u.Description)
	}
	if u.ServiceTypeID != nil {
		set("service_type_id", *u.ServiceTypeID)
	}
	if u.Latitude != nil && u.Longitude != nil {
		set("latitude", *u.Latitude)
		set("longitude", *u.Longitude)
		sets = append(sets, "location=ST_SRID(POINT(?,?),4326)")
		args = append(args, *u.Longitude, *u.Latitude)
	}
	if u.Address != nil {
		set("address", *u.Address)
	}
	if u.City != nil {
		set("city", *u.City)
	}
	if u.Country != nil {
		set("country", *u.Country)
	}
	if u.Phone != nil {
		set("phone", *u.Phone)
	}
	if u.Email != nil {
		set("email", *u.Email)
	}
	if u.Website != nil {
		set("website", *u.Website)
	}
	if u.Tags != nil {
		set("tags", *u.Tags)
	}
	if u.Status != nil {
		set("status", *u.Status)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			`UPDATE services SET `+strings.Join(sets, ", ")+` WHERE id=? AND deleted_at IS NULL`,
			args...); err != nil {
			return model.Service{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// SoftDelete closes a listing and sets its deletion marker; the row stays for
// favorites that still reference it.
func (r *ServiceRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE services SET status=?, deleted_at=NOW() WHERE id=? AND deleted_at IS NULL`,
		model.ServiceClosed, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
