package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Payment is the processor's view of one card payment.
type Payment struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Status       string `json:"status"`
}

// Succeeded reports whether the processor confirmed the charge.
func (p Payment) Succeeded() bool {
	return p.Status == "succeeded"
}

// Client talks to the card payment processor. The whole subscription
// lifecycle lives on the processor's side; this service only creates a
// payment for the Pro upgrade and verifies its outcome.
type Client interface {
	CreatePayment(ctx context.Context, email string) (Payment, error)
	VerifyPayment(ctx context.Context, id string) (Payment, error)
}

// HTTPClient implements Client against the processor's REST API.
type HTTPClient struct {
	baseURL   string
	secretKey string
	price     string
	client    *http.Client
}

func NewHTTPClient(baseURL, secretKey, price string) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		price:     price,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) CreatePayment(ctx context.Context, email string) (Payment, error) {
	body, err := json.Marshal(map[string]string{
		"email": email,
		"price": c.price,
	})
	if err != nil {
		return Payment{}, err
	}
	return c.do(ctx, http.MethodPost, "/v1/payments", bytes.NewReader(body))
}

func (c *HTTPClient) VerifyPayment(ctx context.Context, id string) (Payment, error) {
	return c.do(ctx, http.MethodGet, "/v1/payments/"+id, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body *bytes.Reader) (Payment, error) {
	if c.baseURL == "" {
		return Payment{}, fmt.Errorf("payment processor is not configured")
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return Payment{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Payment{}, fmt.Errorf("payment processor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Payment{}, fmt.Errorf("payment processor returned %d", resp.StatusCode)
	}

	var p Payment
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Payment{}, fmt.Errorf("failed to decode payment: %w", err)
	}
	return p, nil
}
