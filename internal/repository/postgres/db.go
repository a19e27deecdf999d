package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"payhub/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// UnitOfWork implements repository.UnitOfWork over *sql.DB.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// ledgerTx bundles transaction-scoped repositories.
type ledgerTx struct {
	intents      *PaymentIntentRepository
	transactions *TransactionRepository
	refunds      *RefundRepository
}

func (t *ledgerTx) PaymentIntents() repository.PaymentIntentRepository { return t.intents }
func (t *ledgerTx) Transactions() repository.TransactionRepository    { return t.transactions }
func (t *ledgerTx) Refunds() repository.RefundRepository              { return t.refunds }

// WithinTx runs fn inside a database transaction, committing on nil and
// rolling back on error or panic.
func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	scoped := &ledgerTx{
		intents:      NewPaymentIntentRepositoryWithTx(tx),
		transactions: NewTransactionRepositoryWithTx(tx),
		refunds:      NewRefundRepositoryWithTx(tx),
	}

	if err := fn(scoped); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)
