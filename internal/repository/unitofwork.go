package repository

import "context"

// LedgerTx exposes transaction-scoped repositories so that one refund
// approval's writes commit or roll back as a unit.
type LedgerTx interface {
	PaymentIntents() PaymentIntentRepository
	Transactions() TransactionRepository
	Refunds() RefundRepository
}

// UnitOfWork runs a function against transaction-scoped repositories.
// The transaction commits when fn returns nil and rolls back otherwise;
// nothing fn wrote is visible to other readers until commit.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error
}
