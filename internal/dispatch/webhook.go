package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"payhub/internal/domain"
)

// RetryPolicy controls webhook delivery retries.
type RetryPolicy struct {
	Attempts   int
	BaseDelay  time.Duration
	Multiplier float64
}

// DefaultRetryPolicy retries three times with exponential backoff.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:   3,
	BaseDelay:  2 * time.Second,
	Multiplier: 2.0,
}

// WebhookPayload is the body POSTed to a merchant's registered URL.
type WebhookPayload struct {
	EventType       string `json:"event_type"`
	PaymentIntentID string `json:"payment_intent_id"`
	TransactionID   string `json:"transaction_id,omitempty"`
	RefundID        string `json:"refund_id,omitempty"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	Reason          string `json:"reason,omitempty"`
	ApprovedAt      string `json:"approved_at,omitempty"`
	RejectedAt      string `json:"rejected_at,omitempty"`
}

// NewWebhookPayload flattens a domain event into its wire form.
func NewWebhookPayload(event domain.Event) WebhookPayload {
	payload := WebhookPayload{
		EventType: string(event.Type),
	}

	if event.PaymentIntent != nil {
		payload.PaymentIntentID = event.PaymentIntent.ID
		payload.Status = string(event.PaymentIntent.Status)
	}

	if event.Transaction != nil {
		payload.TransactionID = event.Transaction.ID
		payload.Amount = event.Transaction.Amount.String()
		payload.Currency = string(event.Transaction.Currency)
	}

	if refund := event.Refund; refund != nil {
		payload.RefundID = refund.ID
		payload.Amount = refund.Amount.String()
		payload.Currency = string(refund.Currency)
		payload.Reason = refund.Reason
		if refund.Status == domain.RefundStatusRejected {
			payload.Reason = refund.RejectedReason
		}
		if refund.ApprovedAt != nil {
			payload.ApprovedAt = refund.ApprovedAt.UTC().Format(time.RFC3339)
		}
		if refund.RejectedAt != nil {
			payload.RejectedAt = refund.RejectedAt.UTC().Format(time.RFC3339)
		}
	}

	return payload
}

// WebhookSender delivers webhook POSTs with bounded retries.
type WebhookSender struct {
	client *http.Client
	policy RetryPolicy
}

// NewWebhookSender creates a new WebhookSender.
func NewWebhookSender(client *http.Client, policy RetryPolicy) *WebhookSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if policy.Attempts <= 0 {
		policy = DefaultRetryPolicy
	}

	return &WebhookSender{client: client, policy: policy}
}

// Send POSTs the payload to url, retrying per the sender's policy.
// Any 2xx response counts as delivered.
func (s *WebhookSender) Send(ctx context.Context, url string, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	delay := s.policy.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= s.policy.Attempts; attempt++ {
		lastErr = s.post(ctx, url, body)
		if lastErr == nil {
			return nil
		}

		if attempt < s.policy.Attempts {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay = time.Duration(float64(delay) * s.policy.Multiplier)
		}
	}

	return fmt.Errorf("webhook delivery failed after %d attempts: %w", s.policy.Attempts, lastErr)
}

func (s *WebhookSender) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}

	return nil
}
