// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"hmk-docs-backend/internal/config"
	"hmk-docs-backend/internal/domain/ports/adapter"
	pg "hmk-docs-backend/internal/infra/db/postgres"
	"hmk-docs-backend/internal/infra/logging"
	"hmk-docs-backend/internal/infra/mail"
	"hmk-docs-backend/internal/infra/metrics"
	"hmk-docs-backend/internal/infra/payment"
	red "hmk-docs-backend/internal/infra/redis"
	"hmk-docs-backend/internal/infra/sched"
	"hmk-docs-backend/internal/infra/web"
	"hmk-docs-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	tokenRepo := pg.NewRefreshTokenRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Adapters ----
	gateway := payment.NewYooKassaGateway(
		cfg.YooKassa.ShopID,
		cfg.YooKassa.SecretKey,
		cfg.YooKassa.APIURL,
		cfg.YooKassa.ReturnURL,
		cfg.YooKassa.RequestTimeout,
	)

	notifier := newNotifier(cfg, logger)

	// ---- Use cases ----
	subUC := usecase.NewSubscriptionUseCase(subRepo, logger)
	payUC := usecase.NewPaymentUseCase(payRepo, userRepo, subUC, gateway, notifier, txManager, cfg.Jobs.ReconcileBatch, logger)
	authUC := usecase.NewAuthUseCase(userRepo, tokenRepo, notifier, cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, cfg.Auth.BcryptCost, logger)

	// ---- HTTP server ----
	server := web.NewServer(authUC, payUC, subUC, rateLimiter, cfg.HTTP.Port, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Background workers ----
	reconciler := sched.NewReconcileWorker(cfg.Jobs.ReconcileInterval, payUC, logger)
	go func() { _ = reconciler.Run(ctx) }()

	expirer := sched.NewExpiryWorker(cfg.Jobs.ExpireInterval, subUC, logger)
	go func() { _ = expirer.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}

// newNotifier picks Postmark when tokens are configured and a log-only
// notifier otherwise, so local setups run without mail credentials.
func newNotifier(cfg *config.Config, logger *zerolog.Logger) adapter.Notifier {
	if cfg.Mail.PostmarkServerToken != "" && cfg.Mail.Sender != "" {
		return mail.NewPostmarkNotifier(cfg.Mail.PostmarkServerToken, cfg.Mail.PostmarkAccountToken, cfg.Mail.Sender, logger)
	}
	logger.Warn().Msg("mail tokens not configured; notifications are log-only")
	return mail.NewLogNotifier(logger)
}
