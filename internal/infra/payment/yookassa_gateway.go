// File: internal/infra/payment/yookassa_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hmk-docs-backend/internal/domain"
	"hmk-docs-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*YooKassaGateway)(nil)

// YooKassaGateway implements adapter.PaymentGateway against the YooKassa
// v3 API using direct HTTP calls. Authentication is HTTP basic with
// shopID:secretKey; create requests carry the Idempotence-Key header so a
// retried request resolves to the same provider payment.
type YooKassaGateway struct {
	shopID    string
	secretKey string
	baseURL   string
	returnURL string
	client    *http.Client
}

func NewYooKassaGateway(shopID, secretKey, baseURL, returnURL string, timeout time.Duration) *YooKassaGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &YooKassaGateway{
		shopID:    shopID,
		secretKey: secretKey,
		baseURL:   baseURL,
		returnURL: returnURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (g *YooKassaGateway) Name() string { return "yookassa" }

// yooKassaPayment mirrors the provider's payment object, create and fetch
// responses alike.
type yooKassaPayment struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Confirmation struct {
		Type            string `json:"type"`
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
}

// kopeckString renders minor units as the "123.45" decimal string the wire
// format wants. Integer math only.
func kopeckString(kopecks int64) string {
	return fmt.Sprintf("%d.%02d", kopecks/100, kopecks%100)
}

func (g *YooKassaGateway) CreatePayment(ctx context.Context, params adapter.CreatePaymentParams) (*adapter.ProviderPayment, error) {
	requestData := map[string]interface{}{
		"amount": map[string]string{
			"value":    kopeckString(params.AmountKopeck),
			"currency": params.Currency,
		},
		"capture": true,
		"confirmation": map[string]string{
			"type":       "redirect",
			"return_url": g.returnURL,
		},
		"description": params.Description,
	}
	if params.Metadata != nil {
		requestData["metadata"] = params.Metadata
	}

	body, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payments", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotence-Key", params.IdempotenceKey)
	req.SetBasicAuth(g.shopID, g.secretKey)

	return g.do(req)
}

func (g *YooKassaGateway) GetPayment(ctx context.Context, providerPaymentID string) (*adapter.ProviderPayment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payments/"+providerPaymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(g.shopID, g.secretKey)

	return g.do(req)
}

func (g *YooKassaGateway) do(req *http.Request) (*adapter.ProviderPayment, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", domain.ErrUpstreamFailure, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: yookassa status %d: %s", domain.ErrUpstreamFailure, resp.StatusCode, string(body))
	}

	var p yooKassaPayment
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v, body: %s", domain.ErrUpstreamFailure, err, string(body))
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: yookassa response missing payment id: %s", domain.ErrUpstreamFailure, string(body))
	}

	return &adapter.ProviderPayment{
		ID:              p.ID,
		Status:          p.Status,
		ConfirmationURL: p.Confirmation.ConfirmationURL,
		Raw:             json.RawMessage(body),
	}, nil
}
