package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"payhub/internal/domain"
	"payhub/internal/repository"
)

// PaymentIntentRepository is a PostgreSQL implementation of repository.PaymentIntentRepository.
type PaymentIntentRepository struct {
	q Querier
}

// NewPaymentIntentRepository creates a new PostgreSQL payment intent repository.
func NewPaymentIntentRepository(db *sql.DB) *PaymentIntentRepository {
	return &PaymentIntentRepository{q: db}
}

// NewPaymentIntentRepositoryWithTx creates a payment intent repository using a transaction.
func NewPaymentIntentRepositoryWithTx(tx *sql.Tx) *PaymentIntentRepository {
	return &PaymentIntentRepository{q: tx}
}

// Create persists a new payment intent. Line items are stored as JSONB
// alongside the fixed total so the amount invariant survives storage.
func (r *PaymentIntentRepository) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	items, err := json.Marshal(intent.Items)
	if err != nil {
		return fmt.Errorf("marshal line items: %w", err)
	}

	query := `
		INSERT INTO payment_intents
			(id, merchant_id, items, amount, currency, status,
			 reference_id, customer_email, customer_phone, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.q.ExecContext(ctx, query,
		intent.ID,
		intent.MerchantID,
		items,
		intent.Amount,
		intent.Currency,
		intent.Status,
		intent.Metadata.ReferenceID,
		intent.Metadata.CustomerEmail,
		intent.Metadata.CustomerPhone,
		intent.CreatedAt,
		intent.ExpiresAt,
	)

	return err
}

// GetByID retrieves a payment intent by ID.
func (r *PaymentIntentRepository) GetByID(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	query := `
		SELECT id, merchant_id, items, amount, currency, status,
		       reference_id, customer_email, customer_phone, created_at, expires_at
		FROM payment_intents WHERE id = $1
	`

	var intent domain.PaymentIntent
	var items []byte
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&intent.ID,
		&intent.MerchantID,
		&items,
		&intent.Amount,
		&intent.Currency,
		&intent.Status,
		&intent.Metadata.ReferenceID,
		&intent.Metadata.CustomerEmail,
		&intent.Metadata.CustomerPhone,
		&intent.CreatedAt,
		&intent.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(items, &intent.Items); err != nil {
		return nil, fmt.Errorf("unmarshal line items: %w", err)
	}

	return &intent, nil
}

// UpdateStatus transitions a payment intent from one status to another.
// The status guard makes the write safe against concurrent transitions:
// zero affected rows means the intent already moved on, and the caller
// gets ErrStaleEntity instead of a clobbered status.
func (r *PaymentIntentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.PaymentIntentStatus) error {
	query := `UPDATE payment_intents SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, to, id, from)
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

// ListExpiredPending returns the IDs of PENDING intents past their expiry.
func (r *PaymentIntentRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		SELECT id FROM payment_intents
		WHERE status = $1 AND expires_at <= $2
		ORDER BY expires_at
	`

	rows, err := r.q.QueryContext(ctx, query, domain.PaymentIntentStatusPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
