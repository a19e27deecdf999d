package repository

import (
	"context"

	"payhub/internal/domain"
)

// TransactionRepository defines the persistence operations for ledger entries.
// Transactions are append-only: there are no update or delete operations.
type TransactionRepository interface {
	// Create persists a new transaction.
	Create(ctx context.Context, tx *domain.Transaction) error

	// GetByID retrieves a transaction by ID.
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)

	// ListByPaymentIntent returns all transactions recorded against a
	// payment intent, oldest first.
	ListByPaymentIntent(ctx context.Context, paymentIntentID string) ([]*domain.Transaction, error)
}
