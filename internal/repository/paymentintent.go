package repository

import (
	"context"
	"time"

	"payhub/internal/domain"
)

// PaymentIntentRepository defines the persistence operations for payment intents.
type PaymentIntentRepository interface {
	// Create persists a new payment intent.
	Create(ctx context.Context, intent *domain.PaymentIntent) error

	// GetByID retrieves a payment intent by ID.
	GetByID(ctx context.Context, id string) (*domain.PaymentIntent, error)

	// UpdateStatus transitions a payment intent from one status to
	// another. The write is conditional on the intent still holding the
	// from status; ErrStaleEntity signals a concurrent transition won.
	UpdateStatus(ctx context.Context, id string, from, to domain.PaymentIntentStatus) error

	// ListExpiredPending returns the IDs of PENDING intents whose
	// expiry timestamp is at or before the given instant.
	ListExpiredPending(ctx context.Context, now time.Time) ([]string, error)
}
