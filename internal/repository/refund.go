package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"payhub/internal/domain"
)

// RefundRepository defines the persistence operations for refund requests.
type RefundRepository interface {
	// Create persists a new refund in PENDING state.
	Create(ctx context.Context, refund *domain.Refund) error

	// GetByID retrieves a refund by ID.
	GetByID(ctx context.Context, id string) (*domain.Refund, error)

	// MarkApproved transitions a PENDING refund to APPROVED, recording
	// the resolving admin and timestamp. Returns ErrStaleEntity if the
	// refund is no longer PENDING.
	MarkApproved(ctx context.Context, id, adminID string, at time.Time) error

	// MarkRejected transitions a PENDING refund to REJECTED, recording
	// the reason, resolving admin and timestamp. Returns ErrStaleEntity
	// if the refund is no longer PENDING.
	MarkRejected(ctx context.Context, id, reason, adminID string, at time.Time) error

	// SumApprovedAmount sums the amounts of all APPROVED refunds whose
	// transaction belongs to the given payment intent. Returns zero
	// when none exist. Reads committed data at call time; callers must
	// not cache the result across writes.
	SumApprovedAmount(ctx context.Context, paymentIntentID string) (decimal.Decimal, error)
}
