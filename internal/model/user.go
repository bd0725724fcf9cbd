package model

import "time"

// Roles stored in users.role. Admins may manage service listings;
// regular users search, track locations and keep favorites.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account statuses stored in users.status. Only active accounts may log in
// or pass token validation.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// User represents an application user record as stored in the `users` table.
// The password hash is never serialized; handlers return either the struct
// (relying on the "-" tag) or a UserView projection.
//
// Fields:
//
//	ID            – primary key identifier of the user.
//	Name          – display name.
//	Email         – unique email address (among non-deleted accounts).
//	PasswordHash  – bcrypt hashed password.
//	Role          – "user" or "admin".
//	Status        – "active", "inactive" or "suspended".
//	Phone, Avatar – optional profile fields.
//	EmailVerified – whether the address has been confirmed.
//	LastLoginAt   – updated on every successful login.
//	DeletedAt     – soft-delete marker (null while the account lives).
type User struct {
	ID            uint64     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	Phone         *string    `json:"phone"`
	Avatar        *string    `json:"avatar"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"-"`
}

// UserView is the minimal account projection cached for bearer-token
// validation. It deliberately carries no credential material so a cache
// entry can never leak a hash.
type UserView struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// View returns the cacheable projection of u.
func (u User) View() UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Status: u.Status}
}
