package dispatch

import (
	"context"
	"fmt"
	"log"

	"payhub/internal/domain"
)

// EmailNotifier composes and sends notification emails for domain
// events. The sender is pluggable; the default logs the composed
// message, real SMTP integration lives behind the same interface.
type EmailNotifier struct {
	sender EmailSender
}

// EmailSender delivers a composed email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// NewEmailNotifier creates a new EmailNotifier. A nil sender falls back
// to the logging sender.
func NewEmailNotifier(sender EmailSender) *EmailNotifier {
	if sender == nil {
		sender = &LogEmailSender{}
	}
	return &EmailNotifier{sender: sender}
}

// Notify sends the email corresponding to one event.
func (n *EmailNotifier) Notify(ctx context.Context, event domain.Event) error {
	subject, body := composeEmail(event)
	if subject == "" {
		return nil
	}

	return n.sender.SendEmail(ctx, event.Merchant.Email, subject, body)
}

func composeEmail(event domain.Event) (subject, body string) {
	switch event.Type {
	case domain.EventPaymentConfirmed:
		subject = "Payment confirmed"
		body = fmt.Sprintf("Payment of %s %s for intent %s was confirmed.",
			event.Transaction.Amount, event.Transaction.Currency, event.PaymentIntent.ID)
	case domain.EventRefundApproved:
		subject = "Refund approved"
		body = fmt.Sprintf("Refund %s of %s %s was approved. Payment intent %s is now %s.",
			event.Refund.ID, event.Refund.Amount, event.Refund.Currency,
			event.PaymentIntent.ID, event.PaymentIntent.Status)
	case domain.EventRefundRejected:
		subject = "Refund rejected"
		body = fmt.Sprintf("Refund %s of %s %s was rejected: %s.",
			event.Refund.ID, event.Refund.Amount, event.Refund.Currency,
			event.Refund.RejectedReason)
	}
	return subject, body
}

// LogEmailSender logs composed emails instead of sending them.
type LogEmailSender struct{}

// SendEmail logs the email.
func (s *LogEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	log.Printf("[EMAIL] To=%s, Subject=%s, Body=%s", to, subject, body)
	return nil
}
