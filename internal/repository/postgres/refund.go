package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"payhub/internal/domain"
	"payhub/internal/repository"
)

// RefundRepository is a PostgreSQL implementation of repository.RefundRepository.
type RefundRepository struct {
	q Querier
}

// NewRefundRepository creates a new PostgreSQL refund repository.
func NewRefundRepository(db *sql.DB) *RefundRepository {
	return &RefundRepository{q: db}
}

// NewRefundRepositoryWithTx creates a refund repository using a transaction.
func NewRefundRepositoryWithTx(tx *sql.Tx) *RefundRepository {
	return &RefundRepository{q: tx}
}

// Create persists a new refund.
func (r *RefundRepository) Create(ctx context.Context, refund *domain.Refund) error {
	query := `
		INSERT INTO refunds
			(id, transaction_id, status, amount, currency, reason,
			 rejected_reason, requested_at, resolved_by, approved_at, rejected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.ExecContext(ctx, query,
		refund.ID,
		refund.TransactionID,
		refund.Status,
		refund.Amount,
		refund.Currency,
		refund.Reason,
		refund.RejectedReason,
		refund.RequestedAt,
		refund.ResolvedBy,
		refund.ApprovedAt,
		refund.RejectedAt,
	)

	return err
}

// GetByID retrieves a refund by ID.
func (r *RefundRepository) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	query := `
		SELECT id, transaction_id, status, amount, currency, reason,
		       rejected_reason, requested_at, resolved_by, approved_at, rejected_at
		FROM refunds WHERE id = $1
	`

	var refund domain.Refund
	var resolvedBy sql.NullString
	var approvedAt, rejectedAt sql.NullTime
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&refund.ID,
		&refund.TransactionID,
		&refund.Status,
		&refund.Amount,
		&refund.Currency,
		&refund.Reason,
		&refund.RejectedReason,
		&refund.RequestedAt,
		&resolvedBy,
		&approvedAt,
		&rejectedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	refund.ResolvedBy = resolvedBy.String
	if approvedAt.Valid {
		t := approvedAt.Time
		refund.ApprovedAt = &t
	}
	if rejectedAt.Valid {
		t := rejectedAt.Time
		refund.RejectedAt = &t
	}

	return &refund, nil
}

// MarkApproved transitions a PENDING refund to APPROVED. The status
// predicate in the WHERE clause guards against a concurrent resolution
// that slipped past the workflow lock.
func (r *RefundRepository) MarkApproved(ctx context.Context, id, adminID string, at time.Time) error {
	query := `
		UPDATE refunds
		SET status = $1, resolved_by = $2, approved_at = $3
		WHERE id = $4 AND status = $5
	`

	return r.resolve(ctx, query, domain.RefundStatusApproved, adminID, at, id)
}

// MarkRejected transitions a PENDING refund to REJECTED.
func (r *RefundRepository) MarkRejected(ctx context.Context, id, reason, adminID string, at time.Time) error {
	query := `
		UPDATE refunds
		SET status = $1, rejected_reason = $6, resolved_by = $2, rejected_at = $3
		WHERE id = $4 AND status = $5
	`

	return r.resolve(ctx, query, domain.RefundStatusRejected, adminID, at, id, reason)
}

func (r *RefundRepository) resolve(ctx context.Context, query string, status domain.RefundStatus, adminID string, at time.Time, id string, extraArgs ...any) error {
	args := append([]any{status, adminID, at, id, domain.RefundStatusPending}, extraArgs...)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrStaleEntity
	}

	return nil
}

// SumApprovedAmount sums approved refund amounts for a payment intent.
// Runs server-side so the decision always reflects committed state.
func (r *RefundRepository) SumApprovedAmount(ctx context.Context, paymentIntentID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(r.amount), 0)
		FROM refunds r
		JOIN transactions t ON t.id = r.transaction_id
		WHERE t.payment_intent_id = $1 AND r.status = $2
	`

	var sum decimal.Decimal
	err := r.q.QueryRowContext(ctx, query, paymentIntentID, domain.RefundStatusApproved).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return sum, nil
}
