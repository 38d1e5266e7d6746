package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"charity-auction/internal/models"

	"github.com/google/uuid"
)

// Gateway is the opaque external payment capability: ask the provider to
// create a checkout for a payment, and confirm a payment as settled. Callers
// treat both as fire-and-forget; failures are logged upstream, never surfaced
// to bidders.
type Gateway interface {
	RequestPayment(ctx context.Context, payment *models.Payment) error
	MarkPaid(ctx context.Context, paymentID uuid.UUID) error
}

// Client talks to the hosted payment provider over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// RequestPayment asks the provider to create a checkout for the payment
func (c *Client) RequestPayment(ctx context.Context, payment *models.Payment) error {
	body := map[string]interface{}{
		"payment_id": payment.ID.String(),
		"item_id":    payment.ItemID.String(),
		"winner_id":  payment.WinnerID,
		"amount":     payment.Amount,
		"currency":   "GBP",
	}

	return c.post(ctx, "/v1/checkouts", body)
}

// MarkPaid confirms a payment as settled with the provider
func (c *Client) MarkPaid(ctx context.Context, paymentID uuid.UUID) error {
	return c.post(ctx, fmt.Sprintf("/v1/payments/%s/confirm", paymentID), nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}
