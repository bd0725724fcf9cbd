package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ryan2kptit/location-based-services-search/internal/model"
)

// ResetTokenRepo persists password reset tokens. At most one unused token
// exists per account: issuing a new one marks all prior unused tokens used in
// the same transaction.
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Issue invalidates the user's outstanding unused tokens and inserts a fresh
// one in a single transaction.
func (r *ResetTokenRepo) Issue(ctx context.Context, t model.PasswordResetToken) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE password_reset_tokens SET is_used=1, used_at=NOW() WHERE user_id=? AND is_used=0`,
		t.UserID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (id, user_id, token, expires_at) VALUES (?,?,?,?)`,
		t.ID, t.UserID, t.Token, t.ExpiresAt); err != nil {
		return err
	}
	return tx.Commit()
}

// Consume marks an unused, unexpired token as used and stores the new
// password hash for its owner in one transaction. The guarded UPDATE makes
// consumption exactly-once: a replay affects zero rows and fails with
// ErrNotFound, which handlers report as "invalid or expired reset token".
func (r *ResetTokenRepo) Consume(ctx context.Context, token, newPasswordHash string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		id        string
		userID    uint64
		expiresAt time.Time
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at FROM password_reset_tokens
		 WHERE token=? AND is_used=0 LIMIT 1`, token).
		Scan(&id, &userID, &expiresAt)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, ErrNotFound
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE password_reset_tokens SET is_used=1, used_at=NOW() WHERE id=? AND is_used=0`, id)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash=? WHERE id=? AND deleted_at IS NULL`,
		newPasswordHash, userID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return userID, nil
}
