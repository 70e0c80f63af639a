package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive  SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired SubscriptionStatus = "EXPIRED"
)

// Subscription grants a user access for the half-open window
// [StartsAt, EndsAt). Rows are append-only: activation inserts a new row,
// the expiry sweeper flips status, nothing else ever mutates them.
type Subscription struct {
	ID        string // UUID
	UserID    string // UUID
	Plan      Plan
	Status    SubscriptionStatus
	StartsAt  time.Time
	EndsAt    time.Time
	PaymentID *string // nil for seed/manual grants
	CreatedAt time.Time
}

// CoversAccess reports whether this row grants access at the given instant.
func (s *Subscription) CoversAccess(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && s.EndsAt.After(now)
}
