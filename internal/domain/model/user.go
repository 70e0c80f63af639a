package model

import (
	"strings"
	"time"
)

// User is an account that can buy access. Email is stored lowercased.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string // bcrypt
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail canonicalizes an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
