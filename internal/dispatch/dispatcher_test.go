package dispatch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"payhub/internal/domain"
)

type recordingEmailSender struct {
	mu       sync.Mutex
	subjects []string
}

func (s *recordingEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = append(s.subjects, subject)
	return nil
}

func (s *recordingEmailSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subjects)
}

func TestDispatcher_DeliversWebhookAndEmail(t *testing.T) {
	t.Parallel()

	received := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	emails := &recordingEmailSender{}
	d := NewDispatcher(
		NewWebhookSender(server.Client(), testRetryPolicy),
		NewEmailNotifier(emails),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	event := domain.Event{
		ID:   "evt-1",
		Type: domain.EventRefundApproved,
		Merchant: &domain.Merchant{
			ID:         "merchant-1",
			Email:      "billing@kigalibooks.example",
			WebhookURL: server.URL,
		},
		PaymentIntent: &domain.PaymentIntent{
			ID:     "pi-1",
			Status: domain.PaymentIntentStatusRefunded,
		},
		Refund: &domain.Refund{
			ID:       "rf-1",
			Amount:   decimal.RequireFromString("10"),
			Currency: domain.CurrencyUSD,
			Status:   domain.RefundStatusApproved,
		},
	}
	if err := d.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never delivered")
	}

	cancel()
	<-done

	if emails.count() != 1 {
		t.Errorf("expected 1 email, got %d", emails.count())
	}
}

func TestDispatcher_PublishDropsWhenFull(t *testing.T) {
	t.Parallel()

	// No Run loop: the buffer fills and stays full.
	d := NewDispatcher(NewWebhookSender(nil, testRetryPolicy), NewEmailNotifier(&LogEmailSender{}))

	event := domain.Event{ID: "evt", Type: domain.EventPaymentConfirmed}
	for i := 0; i < defaultQueueSize; i++ {
		if err := d.Publish(context.Background(), event); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	if err := d.Publish(context.Background(), event); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestDispatcher_DrainsBufferOnShutdown(t *testing.T) {
	t.Parallel()

	emails := &recordingEmailSender{}
	d := NewDispatcher(NewWebhookSender(nil, testRetryPolicy), NewEmailNotifier(emails))

	event := domain.Event{
		ID:   "evt-drain",
		Type: domain.EventRefundRejected,
		Merchant: &domain.Merchant{
			ID:    "merchant-1",
			Email: "billing@kigalibooks.example",
		},
		Refund: &domain.Refund{
			ID:       "rf-2",
			Amount:   decimal.RequireFromString("5"),
			Currency: domain.CurrencyRWF,
			Status:   domain.RefundStatusRejected,
		},
	}
	for i := 0; i < 3; i++ {
		if err := d.Publish(context.Background(), event); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	// Cancelled before Run starts: everything must come out of drain.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	if emails.count() != 3 {
		t.Errorf("expected 3 emails after drain, got %d", emails.count())
	}
}
