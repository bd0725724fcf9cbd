// Package repository implements raw-SQL persistence over MySQL. The sentinel
// errors defined here let handlers distinguish failure scenarios without
// inspecting driver errors: ErrNotFound maps to HTTP 404 (or 401 on auth
// paths, which deliberately collapse every failure into one shape),
// ErrConflict and ErrEmailExists to 409, ErrForbidden to 403.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested row does not exist, is soft
// deleted, or (for tokens) is revoked or expired.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registration hits the unique email index.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when an insert or update cannot proceed because of
// existing state, such as favoriting an already-favorited service.
var ErrConflict = errors.New("conflict")

// ErrTokenMismatch is returned when a presented refresh token string does not
// match the stored one for its record id.
var ErrTokenMismatch = errors.New("token mismatch")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error (1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
