package repository

import (
	"context"
	"database/sql"

	"github.com/ryan2kptit/location-based-services-search/internal/model"
)

// ServiceTypeRepo reads the `service_types` reference table.
type ServiceTypeRepo struct{ DB *sql.DB }

func NewServiceTypeRepo(db *sql.DB) *ServiceTypeRepo { return &ServiceTypeRepo{DB: db} }

// ListActive returns all active service types ordered by name.
func (r *ServiceTypeRepo) ListActive(ctx context.Context) ([]model.ServiceType, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, description, icon, is_active, created_at, updated_at
		 FROM service_types WHERE is_active=1 ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ServiceType{}
	for rows.Next() {
		var t model.ServiceType
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Icon,
			&t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID fetches a single service type.
func (r *ServiceTypeRepo) GetByID(ctx context.Context, id uint64) (model.ServiceType, error) {
	var t model.ServiceType
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, description, icon, is_active, created_at, updated_at
		 FROM service_types WHERE id=? LIMIT 1`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.Icon, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}
