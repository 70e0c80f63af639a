package model

import "time"

// RefreshToken is one issued refresh token, stored hashed. Tokens are
// rotated on use: refresh revokes the row and inserts a new one.
type RefreshToken struct {
	ID        string // UUID
	UserID    string // UUID
	TokenHash string // bcrypt of the opaque token
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still be exchanged.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}
