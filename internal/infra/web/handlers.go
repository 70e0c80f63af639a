// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hmk-docs-backend/internal/domain"
	"hmk-docs-backend/internal/domain/model"
	"hmk-docs-backend/internal/infra/logging"
	"hmk-docs-backend/internal/infra/metrics"
	"hmk-docs-backend/internal/usecase"
)

// webhook bodies are small JSON objects; cap reads well above any real one.
const maxWebhookBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := s.authUC.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, "email and password are required")
		case errors.Is(err, domain.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "email already registered")
		default:
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := s.authUC.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := s.authUC.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.authUC.Logout(r.Context(), logging.UserID(r.Context())); err != nil {
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentResponse struct {
	ID              string  `json:"id"`
	Plan            string  `json:"plan"`
	Status          string  `json:"status"`
	AmountKopeck    int64   `json:"amount_kopeck"`
	Currency        string  `json:"currency"`
	ConfirmationURL *string `json:"confirmation_url,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		ID:              p.ID,
		Plan:            string(p.Plan),
		Status:          string(p.Status),
		AmountKopeck:    p.AmountKopeck,
		Currency:        p.Currency,
		ConfirmationURL: p.ConfirmationURL,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, ok := model.ParsePlan(req.Plan)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported plan")
		return
	}

	p, err := s.payUC.Create(r.Context(), logging.UserID(r.Context()), plan)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedPlan):
			writeError(w, http.StatusBadRequest, "unsupported plan")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusUnauthorized, "unknown user")
		case errors.Is(err, domain.ErrUpstreamFailure):
			writeError(w, http.StatusBadGateway, "payment provider unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "payment creation failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.payUC.GetUserPayment(r.Context(), logging.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "payment lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

func (s *Server) handleSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.subUC.Status(r.Context(), logging.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleYooKassaWebhook answers 400 for payloads we cannot parse, 500 when
// the terminal transition fails (the provider retries on 5xx), and 200 for
// everything else including events we deliberately ignore.
func (s *Server) handleYooKassaWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		metrics.IncWebhookEvent("read_error")
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	evt, err := usecase.ParseWebhookEvent(body)
	if err != nil {
		metrics.IncWebhookEvent("malformed")
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("malformed webhook payload")
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	if err := s.payUC.HandleWebhook(r.Context(), evt); err != nil {
		metrics.IncWebhookEvent("failed")
		logging.With(r.Context(), s.log).Error().Err(err).Str("provider_payment_id", evt.ProviderPaymentID).Msg("webhook processing failed")
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}

	metrics.IncWebhookEvent("ok")
	w.WriteHeader(http.StatusOK)
}
