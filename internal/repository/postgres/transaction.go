package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"payhub/internal/domain"
	"payhub/internal/repository"
)

// TransactionRepository is a PostgreSQL implementation of repository.TransactionRepository.
type TransactionRepository struct {
	q Querier
}

// NewTransactionRepository creates a new PostgreSQL transaction repository.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{q: db}
}

// NewTransactionRepositoryWithTx creates a transaction repository using a transaction.
func NewTransactionRepositoryWithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

const transactionColumns = `
	id, payment_intent_id, parent_transaction_id, amount, currency,
	method, status, confirmed_at, actor_id, actor_role,
	customer_email, customer_phone, reference_id, failure_reason, refund_reason, extra
`

// Create persists a new ledger entry. There is no update path: the
// ledger is append-only.
func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	extra, err := json.Marshal(tx.Metadata.Extra)
	if err != nil {
		return fmt.Errorf("marshal extra metadata: %w", err)
	}

	var parent sql.NullString
	if tx.ParentTransactionID != "" {
		parent = sql.NullString{String: tx.ParentTransactionID, Valid: true}
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = r.q.ExecContext(ctx, query,
		tx.ID,
		tx.PaymentIntentID,
		parent,
		tx.Amount,
		tx.Currency,
		tx.Method,
		tx.Status,
		tx.ConfirmedAt,
		tx.ActorID,
		tx.ActorRole,
		tx.Metadata.CustomerEmail,
		tx.Metadata.CustomerPhone,
		tx.Metadata.ReferenceID,
		tx.Metadata.FailureReason,
		tx.Metadata.RefundReason,
		extra,
	)

	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return tx, nil
}

// ListByPaymentIntent returns all transactions against a payment intent, oldest first.
func (r *TransactionRepository) ListByPaymentIntent(ctx context.Context, paymentIntentID string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions WHERE payment_intent_id = $1
		ORDER BY confirmed_at
	`

	rows, err := r.q.QueryContext(ctx, query, paymentIntentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var parent sql.NullString
	var extra []byte

	err := s.Scan(
		&tx.ID,
		&tx.PaymentIntentID,
		&parent,
		&tx.Amount,
		&tx.Currency,
		&tx.Method,
		&tx.Status,
		&tx.ConfirmedAt,
		&tx.ActorID,
		&tx.ActorRole,
		&tx.Metadata.CustomerEmail,
		&tx.Metadata.CustomerPhone,
		&tx.Metadata.ReferenceID,
		&tx.Metadata.FailureReason,
		&tx.Metadata.RefundReason,
		&extra,
	)
	if err != nil {
		return nil, err
	}

	tx.ParentTransactionID = parent.String

	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &tx.Metadata.Extra); err != nil {
			return nil, fmt.Errorf("unmarshal extra metadata: %w", err)
		}
	}

	return &tx, nil
}
