package model

import "time"

// RefreshToken models a row in the `refresh_tokens` table. The record id is a
// UUID generated before signing so the refresh JWT can embed it; the signed
// token string is stored alongside for a string-match check on validation
// (defends against substitution even if an id leaks). A record is single-use
// under rotation: refreshing revokes it and inserts a replacement in the same
// transaction.
//
// Fields:
//
//	ID         – UUID primary key, also embedded in the refresh JWT.
//	UserID     – owner of the token.
//	Token      – the signed refresh JWT as handed to the client.
//	DeviceInfo – optional user-agent string captured at issue time.
//	IPAddress  – optional client address captured at issue time.
//	ExpiresAt  – expiration timestamp.
//	IsRevoked  – set on rotation or logout; revoked rows never validate.
//	RevokedAt  – when the token was revoked (null while active).
type RefreshToken struct {
	ID         string     `json:"id"`
	UserID     uint64     `json:"user_id"`
	Token      string     `json:"token"`
	DeviceInfo *string    `json:"device_info"`
	IPAddress  *string    `json:"ip_address"`
	ExpiresAt  time.Time  `json:"expires_at"`
	IsRevoked  bool       `json:"is_revoked"`
	RevokedAt  *time.Time `json:"revoked_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PasswordResetToken models a row in the `password_reset_tokens` table.
// Issuing a new token marks every prior unused token for the account as used,
// so at most one live token exists per account. Consumed exactly once.
type PasswordResetToken struct {
	ID        string     `json:"id"`
	UserID    uint64     `json:"user_id"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	IsUsed    bool       `json:"is_used"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}
