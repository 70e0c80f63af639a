// File: cmd/seed/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hmk-docs-backend/internal/config"
	"hmk-docs-backend/internal/domain"
	"hmk-docs-backend/internal/domain/model"
	pg "hmk-docs-backend/internal/infra/db/postgres"
	"hmk-docs-backend/internal/infra/logging"
	"hmk-docs-backend/internal/usecase"
)

// Seeds demo accounts for local development. Existing accounts are left
// untouched, so the command is safe to re-run.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	userRepo := pg.NewUserRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	subUC := usecase.NewSubscriptionUseCase(subRepo, logger)

	seed := []struct {
		Email    string
		Password string
		Plan     model.Plan // empty means no subscription
	}{
		{"demo@example.com", "demo1234", model.PlanWeek},
		{"trial@example.com", "trial1234", model.PlanDay},
		{"empty@example.com", "empty1234", ""},
	}

	for _, s := range seed {
		email := model.NormalizeEmail(s.Email)
		if _, err := userRepo.FindByEmail(ctx, nil, email); err == nil {
			fmt.Printf("exists: %s (no changes)\n", email)
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			log.Fatalf("lookup %s: %v", email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), cfg.Auth.BcryptCost)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		now := time.Now()
		user := &model.User{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := userRepo.Save(ctx, nil, user); err != nil {
			log.Fatalf("save %s: %v", email, err)
		}
		fmt.Printf("seeded: %s (password=%s)\n", email, s.Password)

		if s.Plan == "" {
			continue
		}
		sub, err := subUC.Grant(ctx, user.ID, s.Plan)
		if err != nil {
			log.Fatalf("grant %s to %s: %v", s.Plan, email, err)
		}
		fmt.Printf("  granted %s until %s\n", s.Plan, sub.EndsAt.Format(time.RFC3339))
	}

	fmt.Println("Seeding complete.")
}
