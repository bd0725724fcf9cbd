package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ryan2kptit/location-based-services-search/internal/model"
)

// LocationRepo persists tracked user positions. The same POINT-derivation
// rule as services applies, and the single-default invariant is enforced
// transactionally: flipping a location to default clears every other default
// for the user in the same transaction as the write.
type LocationRepo struct{ DB *sql.DB }

func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{DB: db} }

const locationColumns = `ul.id, ul.user_id, ul.name, ul.address, ul.latitude, ul.longitude,
	ul.type, ul.is_default, ul.created_at, ul.updated_at`

func scanLocation(scan func(dest ...any) error) (model.UserLocation, error) {
	var l model.UserLocation
	err := scan(&l.ID, &l.UserID, &l.Name, &l.Address, &l.Latitude, &l.Longitude,
		&l.Type, &l.IsDefault, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return l, ErrNotFound
	}
	return l, err
}

// Track inserts a new location record. When the record is the new default,
// all other defaults for the user are cleared first, inside the same
// transaction, so a race can never leave two "current" locations.
func (r *LocationRepo) Track(ctx context.Context, l model.UserLocation) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if l.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_locations SET is_default=0 WHERE user_id=? AND is_default=1`,
			l.UserID); err != nil {
			return 0, err
		}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO user_locations (user_id, name, address, latitude, longitude, location, type, is_default)
		 VALUES (?,?,?,?,?,ST_SRID(POINT(?,?),4326),?,?)`,
		l.UserID, l.Name, l.Address, l.Latitude, l.Longitude,
		l.Longitude, l.Latitude, l.Type, l.IsDefault)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a location owned by the user.
func (r *LocationRepo) GetByID(ctx context.Context, userID, id uint64) (model.UserLocation, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM user_locations ul WHERE ul.id=? AND ul.user_id=? LIMIT 1`,
		id, userID)
	return scanLocation(row.Scan)
}

// Current returns the user's default location, the one nearby-user discovery
// sees.
func (r *LocationRepo) Current(ctx context.Context, userID uint64) (model.UserLocation, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM user_locations ul
		 WHERE ul.user_id=? AND ul.is_default=1
		 ORDER BY ul.created_at DESC LIMIT 1`, userID)
	return scanLocation(row.Scan)
}

// History returns the user's most recent locations, newest first.
func (r *LocationRepo) History(ctx context.Context, userID uint64, limit int) ([]model.UserLocation, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+locationColumns+` FROM user_locations ul
		 WHERE ul.user_id=? ORDER BY ul.created_at DESC, ul.id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserLocation{}
	for rows.Next() {
		l, err := scanLocation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// LocationUpdate carries the optional fields of an update; nil leaves a field
// unchanged. Latitude and Longitude must be set together.
type LocationUpdate struct {
	Name      *string
	Address   *string
	Latitude  *float64
	Longitude *float64
	Type      *string
	IsDefault *bool
}

// Update applies the set fields to a location owned by the user. Setting
// IsDefault=true clears the user's other defaults in the same transaction.
func (r *LocationRepo) Update(ctx context.Context, userID, id uint64, u LocationUpdate) (model.UserLocation, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.UserLocation{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM user_locations WHERE id=? AND user_id=? LIMIT 1`, id, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return model.UserLocation{}, ErrNotFound
	}
	if err != nil {
		return model.UserLocation{}, err
	}

	if u.IsDefault != nil && *u.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_locations SET is_default=0 WHERE user_id=? AND is_default=1 AND id<>?`,
			userID, id); err != nil {
			return model.UserLocation{}, err
		}
	}

	sets := []string{}
	args := []any{}
	if u.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *u.Name)
	}
	if u.Address != nil {
		sets = append(sets, "address=?")
		args = append(args, *u.Address)
	}
	if u.Latitude != nil && u.Longitude != nil {
		sets = append(sets, "latitude=?", "longitude=?", "location=ST_SRID(POINT(?,?),4326)")
		args = append(args, *u.Latitude, *u.Longitude, *u.Longitude, *u.Latitude)
	}
	if u.Type != nil {
		sets = append(sets, "type=?")
		args = append(args, *u.Type)
	}
	if u.IsDefault != nil {
		sets = append(sets, "is_default=?")
		args = append(args, *u.IsDefault)
	}
	if len(sets) > 0 {
		args = append(args, id, userID)
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_locations SET `+strings.Join(sets, ", ")+` WHERE id=? AND user_id=?`,
			args...); err != nil {
			return model.UserLocation{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.UserLocation{}, err
	}
	return r.GetByID(ctx, userID, id)
}

// Delete removes a location owned by the user.
func (r *LocationRepo) Delete(ctx context.Context, userID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM user_locations WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UserLocationWithDistance is a location annotated with its distance in
// meters from the query point.
type UserLocationWithDistance struct {
	model.UserLocation
	DistanceMeters float64 `json:"distance"`
}

// NearbyUsers returns default locations within the radius ordered by
// distance. Only a user's current location counts for discovery, so
// non-default rows are excluded regardless of proximity.
func (r *LocationRepo) NearbyUsers(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]UserLocationWithDistance, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	const dist = `ST_Distance_Sphere(ul.location, ST_SRID(POINT(?, ?), 4326))`
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+locationColumns+`, `+dist+` AS distance
		 FROM user_locations ul
		 WHERE ul.is_default=1 AND `+dist+` <= ?
		 ORDER BY distance ASC, ul.id ASC
		 LIMIT ?`,
		lon, lat, lon, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]UserLocationWithDistance, 0, limit)
	for rows.Next() {
		var it UserLocationWithDistance
		if err := rows.Scan(&it.ID, &it.UserID, &it.Name, &it.Address,
			&it.Latitude, &it.Longitude, &it.Type, &it.IsDefault,
			&it.CreatedAt, &it.UpdatedAt, &it.DistanceMeters); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// DistanceBetween returns the great-circle distance in meters between two
// location records. When either id is unresolved the join yields no row and
// the result is 0 rather than an error; callers relying on this to mean
// "coincident points" should not.
func (r *LocationRepo) DistanceBetween(ctx context.Context, id1, id2 uint64) (float64, error) {
	var distance float64
	err := r.DB.QueryRowContext(ctx,
		`SELECT ST_Distance_Sphere(l1.location, l2.location)
		 FROM user_locations l1, user_locations l2
		 WHERE l1.id=? AND l2.id=?`, id1, id2).Scan(&distance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return distance, nil
}
