package domain

import "time"

// EventType identifies a domain event published to the dispatcher.
type EventType string

const (
	EventPaymentConfirmed EventType = "PAYMENT_CONFIRMED"
	EventRefundApproved   EventType = "REFUND_APPROVED"
	EventRefundRejected   EventType = "REFUND_REJECTED"
)

// Event is the immutable value handed off to the notification
// dispatcher after a financial state transition. The core publishes and
// forgets; webhook and email delivery, including retries, happen in the
// dispatcher's worker.
type Event struct {
	ID            string
	Type          EventType
	Refund        *Refund
	Transaction   *Transaction
	PaymentIntent *PaymentIntent
	Merchant      *Merchant
	OccurredAt    time.Time
}
