package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ryan2kptit/location-based-services-search/internal/model"
)

// UserRepo persists accounts in the `users` table. Soft-deleted rows are
// invisible to every query here.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, name, email, password_hash, role, status, phone, avatar,
	email_verified, last_login_at, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Status,
		&u.Phone, &u.Avatar, &u.EmailVerified, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// CreateWithToken inserts a new user and its initial refresh token in one
// transaction, so a half-created account is never visible without a session
// and vice versa. The user id is only known after the insert, so the caller
// supplies mint, which signs the token pair for that id and returns the
// refresh record to persist. last_login_at is set at creation since
// registration logs the user in.
func (r *UserRepo) CreateWithToken(
	ctx context.Context,
	name, email, passwordHash string,
	phone *string,
	mint func(userID uint64) (model.RefreshToken, error),
) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, status, phone, last_login_at)
		 VALUES (?,?,?,?,?,?,NOW())`,
		name, email, passwordHash, model.RoleUser, model.StatusActive, phone)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	userID := uint64(id)

	t, err := mint(userID)
	if err != nil {
		return 0, err
	}
	if err := insertRefreshToken(ctx, tx, t); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return userID, nil
}

// GetByEmail fetches a non-deleted user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=? AND deleted_at IS NULL LIMIT 1`, email))
}

// GetByID fetches a non-deleted user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1`, id))
}

// UpdateProfile applies the non-nil profile fields and returns the updated row.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, phone, avatar *string) (model.User, error) {
	sets := []string{}
	args := []any{}
	if name != nil {
		sets = append(sets, "name=?")
		args = append(args, *name)
	}
	if phone != nil {
		sets = append(sets, "phone=?")
		args = append(args, *phone)
	}
	if avatar != nil {
		sets = append(sets, "avatar=?")
		args = append(args, *avatar)
	}
	if len(sets) > 0 {
		args = append(args, id)
		res, err := r.DB.ExecContext(ctx,
			`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id=? AND deleted_at IS NULL`, args...)
		if err != nil {
			return model.User{}, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Distinguish "no such user" from "values unchanged".
			if _, err := r.GetByID(ctx, id); err != nil {
				return model.User{}, err
			}
		}
	}
	return r.GetByID(ctx, id)
}

// UpdatePassword stores a new bcrypt hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash=? WHERE id=? AND deleted_at IS NULL`, passwordHash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// SoftDelete marks the account deleted. The row is kept; every other query
// in this repo filters it out from then on.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET deleted_at=NOW() WHERE id=? AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
