// File: internal/infra/web/server.go
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"hmk-docs-backend/internal/infra/redis"
	"hmk-docs-backend/internal/usecase"
)

type Server struct {
	authUC  usecase.AuthUseCase
	payUC   usecase.PaymentUseCase
	subUC   usecase.SubscriptionUseCase
	limiter *redis.RateLimiter
	port    int
	log     *zerolog.Logger
	server  *http.Server
}

func NewServer(
	authUC usecase.AuthUseCase,
	payUC usecase.PaymentUseCase,
	subUC usecase.SubscriptionUseCase,
	limiter *redis.RateLimiter,
	port int,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		authUC:  authUC,
		payUC:   payUC,
		subUC:   subUC,
		limiter: limiter,
		port:    port,
		log:     &webLog,
	}
}

// Router builds the full route tree. Webhook and health endpoints stay
// outside the auth chain.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(requestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(s.rateLimit("auth", 10, time.Minute)).Post("/register", s.handleRegister)
			r.With(s.rateLimit("auth", 10, time.Minute)).Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.With(s.authMiddleware).Post("/logout", s.handleLogout)
		})

		// The provider calls this; it authenticates by payload content, not
		// by bearer token.
		r.With(s.rateLimit("webhook", 120, time.Minute)).
			Post("/payments/yookassa/webhook", s.handleYooKassaWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.With(s.rateLimit("payments", 10, time.Minute)).Post("/payments", s.handleCreatePayment)
			r.Get("/payments/{id}", s.handleGetPayment)
			r.Get("/subscriptions/me", s.handleSubscriptionStatus)
		})
	})
	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Router(),
	}
	s.log.Info().Int("port", s.port).Msg("HTTP server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
