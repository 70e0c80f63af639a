package repository

import (
	"context"

	"hmk-docs-backend/internal/domain/model"
)

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
}

// RefreshTokenRepository stores hashed refresh tokens for rotation and
// revocation.
type RefreshTokenRepository interface {
	Save(ctx context.Context, tx Tx, t *model.RefreshToken) error
	// FindLatestActiveByUser returns the newest non-revoked token row for
	// the user, or ErrNotFound.
	FindLatestActiveByUser(ctx context.Context, tx Tx, userID string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, tx Tx, id string) error
	RevokeAllForUser(ctx context.Context, tx Tx, userID string) error
}
