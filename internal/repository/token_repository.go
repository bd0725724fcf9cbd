package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ryan2kptit/location-based-services-search/internal/model"
)

// TokenRepo persists refresh token records in the `refresh_tokens` table.
// Records are kept after revocation and expiry for audit; they are inert but
// never purged here.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// insertRefreshToken writes a token record inside an existing transaction.
// Shared by the registration, login and rotation transactions.
func insertRefreshToken(ctx context.Context, tx *sql.Tx, t model.RefreshToken) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token, device_info, ip_address, expires_at)
		 VALUES (?,?,?,?,?,?)`,
		t.ID, t.UserID, t.Token, t.DeviceInfo, t.IPAddress, t.ExpiresAt)
	return err
}

// StoreMarkingLogin inserts a refresh token record and updates the owner's
// last_login_at in one transaction (the login atomic unit).
func (r *TokenRepo) StoreMarkingLogin(ctx context.Context, t model.RefreshToken) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET last_login_at=NOW() WHERE id=?`, t.UserID); err != nil {
		return err
	}
	if err := insertRefreshToken(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

// Rotate revokes the presented record and inserts its replacement in one
// transaction: no window where both are valid, none where neither is. The
// guarded UPDATE makes rotation single-use: a second rotation of the same
// id affects zero rows and fails with ErrNotFound.
func (r *TokenRepo) Rotate(ctx context.Context, oldID string, t model.RefreshToken) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_revoked=1, revoked_at=NOW() WHERE id=? AND is_revoked=0`,
		oldID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := insertRefreshToken(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

// Get loads a token record by id regardless of revocation state; callers
// decide what revoked/expired means for them.
func (r *TokenRepo) Get(ctx context.Context, id string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, token, device_info, ip_address, expires_at, is_revoked, revoked_at, created_at
		 FROM refresh_tokens WHERE id=? LIMIT 1`, id).
		Scan(&t.ID, &t.UserID, &t.Token, &t.DeviceInfo, &t.IPAddress,
			&t.ExpiresAt, &t.IsRevoked, &t.RevokedAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

// Validate checks a presented refresh token string against its stored record.
// It fails with ErrNotFound when the record is missing, revoked or expired,
// and with ErrTokenMismatch when the stored string differs from the presented
// one; the mismatch defends against substitution even if a record id leaks.
func (r *TokenRepo) Validate(ctx context.Context, id, presented string) (model.RefreshToken, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return model.RefreshToken{}, err
	}
	if t.IsRevoked || time.Now().UTC().After(t.ExpiresAt) {
		return model.RefreshToken{}, ErrNotFound
	}
	if t.Token != presented {
		return model.RefreshToken{}, ErrTokenMismatch
	}
	return t, nil
}

// Revoke marks a single record revoked.
func (r *TokenRepo) Revoke(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_revoked=1, revoked_at=NOW() WHERE id=? AND is_revoked=0`, id)
	return err
}

// RevokeAllForUser revokes every active record for the user and returns the
// affected ids so callers can fan out cache invalidation.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) ([]string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM refresh_tokens WHERE user_id=? AND is_revoked=0`, userID)
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_revoked=1, revoked_at=NOW() WHERE user_id=? AND is_revoked=0`,
		userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}
