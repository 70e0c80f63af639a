//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"hmk-docs-backend/internal/domain"
	"hmk-docs-backend/internal/domain/model"
)

func TestUserRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewUserRepo(testPool)

	t.Run("should save and find by id and email", func(t *testing.T) {
		cleanup(t)
		u := saveTestUser(t, "a@example.com")

		byID, err := repo.FindByID(ctx, nil, u.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if byID.Email != "a@example.com" {
			t.Fatal("FindByID returned wrong row")
		}

		byEmail, err := repo.FindByEmail(ctx, nil, "a@example.com")
		if err != nil {
			t.Fatalf("FindByEmail failed: %v", err)
		}
		if byEmail.ID != u.ID {
			t.Fatal("FindByEmail returned wrong row")
		}

		if _, err := repo.FindByEmail(ctx, nil, "nobody@example.com"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRefreshTokenRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewRefreshTokenRepo(testPool)

	newToken := func(userID string, createdAt time.Time) *model.RefreshToken {
		return &model.RefreshToken{
			ID:        uuid.NewString(),
			UserID:    userID,
			TokenHash: "hash",
			ExpiresAt: createdAt.Add(720 * time.Hour),
			CreatedAt: createdAt,
		}
	}

	t.Run("should return the newest active token", func(t *testing.T) {
		cleanup(t)
		u := saveTestUser(t, "a@example.com")
		now := time.Now()

		old := newToken(u.ID, now.Add(-time.Hour))
		latest := newToken(u.ID, now)
		for _, tok := range []*model.RefreshToken{old, latest} {
			if err := repo.Save(ctx, nil, tok); err != nil {
				t.Fatalf("failed to save token: %v", err)
			}
		}

		got, err := repo.FindLatestActiveByUser(ctx, nil, u.ID)
		if err != nil {
			t.Fatalf("FindLatestActiveByUser failed: %v", err)
		}
		if got.ID != latest.ID {
			t.Fatal("expected the newest token row")
		}
	})

	t.Run("should skip revoked tokens", func(t *testing.T) {
		cleanup(t)
		u := saveTestUser(t, "a@example.com")
		tok := newToken(u.ID, time.Now())
		if err := repo.Save(ctx, nil, tok); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		if err := repo.Revoke(ctx, nil, tok.ID); err != nil {
			t.Fatalf("Revoke failed: %v", err)
		}
		if _, err := repo.FindLatestActiveByUser(ctx, nil, u.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after revoke, got %v", err)
		}
		if err := repo.Revoke(ctx, nil, tok.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on double revoke, got %v", err)
		}
	})

	t.Run("should revoke every token for the user", func(t *testing.T) {
		cleanup(t)
		u := saveTestUser(t, "a@example.com")
		other := saveTestUser(t, "b@example.com")
		now := time.Now()

		for i := 0; i < 3; i++ {
			if err := repo.Save(ctx, nil, newToken(u.ID, now.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatalf("failed to save token: %v", err)
			}
		}
		foreign := newToken(other.ID, now)
		if err := repo.Save(ctx, nil, foreign); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		if err := repo.RevokeAllForUser(ctx, nil, u.ID); err != nil {
			t.Fatalf("RevokeAllForUser failed: %v", err)
		}
		if _, err := repo.FindLatestActiveByUser(ctx, nil, u.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected no active tokens, got %v", err)
		}
		if _, err := repo.FindLatestActiveByUser(ctx, nil, other.ID); err != nil {
			t.Fatalf("other user's token must stay active: %v", err)
		}
	})
}
