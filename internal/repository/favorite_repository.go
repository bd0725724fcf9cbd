package repository

import (
	"context"
	"database/sql"

	"github.com/ryan2kptit/location-based-services-search/internal/model"
)

// FavoriteRepo persists (user, service) favorites. The unique key on the
// pair is the idempotency guard, and the service's favorite counter moves in
// the same transaction as the row so the two can never drift.
type FavoriteRepo struct{ DB *sql.DB }

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{DB: db} }

// FavoriteWithService is a favorite row joined with its service listing.
type FavoriteWithService struct {
	model.Favorite
	Service model.Service `json:"service"`
}

// Create inserts a favorite and increments the service's counter in one
// transaction. Fails with ErrNotFound when the service does not exist and
// ErrConflict when the pair is already favorited (the counter is untouched
// in both cases).
func (r *FavoriteRepo) Create(ctx context.Context, userID, serviceID uint64) (model.Favorite, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM services WHERE id=? AND deleted_at IS NULL LIMIT 1`, serviceID).Scan(&one)
	if err == sql.ErrNoRows {
		return model.Favorite{}, ErrNotFound
	}
	if err != nil {
		return model.Favorite{}, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Favorite{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO favorites (user_id, service_id) VALUES (?,?)`, userID, serviceID)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Favorite{}, ErrConflict
		}
		return model.Favorite{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Favorite{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE services SET favorite_count=favorite_count+1 WHERE id=?`, serviceID); err != nil {
		return model.Favorite{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Favorite{}, err
	}

	var f model.Favorite
	err = r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, service_id, created_at FROM favorites WHERE id=? LIMIT 1`, uint64(id)).
		Scan(&f.ID, &f.UserID, &f.ServiceID, &f.CreatedAt)
	return f, err
}

const favoriteJoinQuery = `SELECT f.id, f.user_id, f.service_id, f.created_at, ` + serviceColumns + `
	FROM favorites f
	JOIN services s ON s.id = f.service_id`

func scanFavoriteWithService(rows *sql.Rows) (FavoriteWithService, error) {
	var fs FavoriteWithService
	err := rows.Scan(&fs.ID, &fs.UserID, &fs.ServiceID, &fs.CreatedAt,
		&fs.Service.ID, &fs.Service.Name, &fs.Service.Description, &fs.Service.ServiceTypeID,
		&fs.Service.Latitude, &fs.Service.Longitude, &fs.Service.Address, &fs.Service.City,
		&fs.Service.Country, &fs.Service.Phone, &fs.Service.Email, &fs.Service.Website,
		&fs.Service.Rating, &fs.Service.ReviewCount, &fs.Service.Tags, &fs.Service.Status,
		&fs.Service.IsVerified, &fs.Service.IsFeatured, &fs.Service.ViewCount,
		&fs.Service.FavoriteCount, &fs.Service.CreatedAt, &fs.Service.UpdatedAt)
	return fs, err
}

// ListByUser returns the user's favorites newest-first with their services.
func (r *FavoriteRepo) ListByUser(ctx context.Context, userID uint64) ([]FavoriteWithService, error) {
	rows, err := r.DB.QueryContext(ctx,
		favoriteJoinQuery+` WHERE f.user_id=? ORDER BY f.created_at DESC, f.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []FavoriteWithService{}
	for rows.Next() {
		fs, err := scanFavoriteWithService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}

// ListByServiceType returns the user's favorites restricted to one service
// type.
func (r *FavoriteRepo) ListByServiceType(ctx context.Context, userID, serviceTypeID uint64) ([]FavoriteWithService, error) {
	rows, err := r.DB.QueryContext(ctx,
		favoriteJoinQuery+` WHERE f.user_id=? AND s.service_type_id=?
		 ORDER BY f.created_at DESC, f.id DESC`, userID, serviceTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []FavoriteWithService{}
	for rows.Next() {
		fs, err := scanFavoriteWithService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}

// GetByID fetches one favorite owned by the user, with its service.
func (r *FavoriteRepo) GetByID(ctx context.Context, userID, id uint64) (FavoriteWithService, error) {
	rows, err := r.DB.QueryContext(ctx,
		favoriteJoinQuery+` WHERE f.id=? AND f.user_id=? LIMIT 1`, id, userID)
	if err != nil {
		return FavoriteWithService{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return FavoriteWithService{}, err
		}
		return FavoriteWithService{}, ErrNotFound
	}
	return scanFavoriteWithService(rows)
}

// IsFavorite reports whether the pair exists.
func (r *FavoriteRepo) IsFavorite(ctx context.Context, userID, serviceID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id=? AND service_id=?`,
		userID, serviceID).Scan(&n)
	return n > 0, err
}

// Delete removes a favorite owned by the user and decrements the service's
// counter in the same transaction. The counter is floored at zero.
func (r *FavoriteRepo) Delete(ctx context.Context, userID, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var serviceID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT service_id FROM favorites WHERE id=? AND user_id=? LIMIT 1`, id, userID).
		Scan(&serviceID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM favorites WHERE id=? AND user_id=?`, id, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE services SET favorite_count=GREATEST(favorite_count-1, 0) WHERE id=?`,
		serviceID); err != nil {
		return err
	}
	return tx.Commit()
}
