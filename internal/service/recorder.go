package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payhub/internal/domain"
	"payhub/internal/repository"
)

// TransactionRecorder creates immutable ledger entries and resolves a
// transaction together with its payment intent.
type TransactionRecorder struct {
	uow        repository.UnitOfWork
	intentRepo repository.PaymentIntentRepository
	txRepo     repository.TransactionRepository
}

// NewTransactionRecorder creates a new TransactionRecorder.
func NewTransactionRecorder(
	uow repository.UnitOfWork,
	intentRepo repository.PaymentIntentRepository,
	txRepo repository.TransactionRepository,
) *TransactionRecorder {
	return &TransactionRecorder{
		uow:        uow,
		intentRepo: intentRepo,
		txRepo:     txRepo,
	}
}

// RecordConfirmationParams contains the parameters for recording a
// payment confirmation.
type RecordConfirmationParams struct {
	PaymentIntentID string
	Amount          decimal.Decimal
	Currency        domain.Currency
	Method          domain.PaymentMethod
	Actor           domain.Actor
	Metadata        domain.TransactionMetadata
}

// RecordConfirmation writes a SUCCESS ledger entry for an out-of-band
// payment confirmation and moves the payment intent to COMPLETED. The
// two writes commit as one unit.
func (r *TransactionRecorder) RecordConfirmation(ctx context.Context, params RecordConfirmationParams) (*domain.Transaction, *domain.PaymentIntent, error) {
	intent, err := r.intentRepo.GetByID(ctx, params.PaymentIntentID)
	if err != nil {
		return nil, nil, err
	}

	if intent.Status != domain.PaymentIntentStatusPending {
		return nil, nil, ErrIntentNotPending
	}

	if params.Currency != intent.Currency {
		return nil, nil, ErrCurrencyMismatch
	}

	// Out-of-band confirmations settle the full amount owed.
	if !params.Amount.Equal(intent.Amount) {
		return nil, nil, ErrInvalidAmount
	}

	tx := &domain.Transaction{
		ID:              uuid.New().String(),
		PaymentIntentID: intent.ID,
		Amount:          params.Amount,
		Currency:        params.Currency,
		Method:          params.Method,
		Status:          domain.TransactionStatusSuccess,
		ConfirmedAt:     time.Now(),
		ActorID:         params.Actor.ID,
		ActorRole:       params.Actor.Role,
		Metadata:        params.Metadata,
	}

	err = r.uow.WithinTx(ctx, func(ledger repository.LedgerTx) error {
		if err := ledger.Transactions().Create(ctx, tx); err != nil {
			return err
		}
		return ledger.PaymentIntents().UpdateStatus(ctx, intent.ID,
			domain.PaymentIntentStatusPending, domain.PaymentIntentStatusCompleted)
	})
	if err != nil {
		// The intent left PENDING between our read and the write, e.g.
		// the expiry sweep got there first.
		if errors.Is(err, repository.ErrStaleEntity) {
			return nil, nil, ErrIntentNotPending
		}
		return nil, nil, err
	}

	intent.Status = domain.PaymentIntentStatusCompleted
	return tx, intent, nil
}

// RecordRefundTransaction writes a REFUNDED ledger entry reversing the
// original transaction, using the supplied transaction-scoped
// repositories so the entry commits together with the rest of the
// approval's writes. The entry links back to the original via
// ParentTransactionID and carries the refund reason in its metadata.
func (r *TransactionRecorder) RecordRefundTransaction(ctx context.Context, ledger repository.LedgerTx, original *domain.Transaction, refund *domain.Refund, admin domain.Actor) (*domain.Transaction, error) {
	tx := &domain.Transaction{
		ID:                  uuid.New().String(),
		PaymentIntentID:     original.PaymentIntentID,
		ParentTransactionID: original.ID,
		Amount:              refund.Amount,
		Currency:            refund.Currency,
		Method:              original.Method,
		Status:              domain.TransactionStatusRefunded,
		ConfirmedAt:         time.Now(),
		ActorID:             admin.ID,
		ActorRole:           admin.Role,
		Metadata: domain.TransactionMetadata{
			CustomerEmail: original.Metadata.CustomerEmail,
			CustomerPhone: original.Metadata.CustomerPhone,
			ReferenceID:   original.Metadata.ReferenceID,
			RefundReason:  refund.Reason,
		},
	}

	if err := ledger.Transactions().Create(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// GetTransactionAndPaymentIntent loads a transaction together with its
// payment intent. Every refund decision needs both sides: ownership and
// balance checks run against the intent the transaction belongs to.
func (r *TransactionRecorder) GetTransactionAndPaymentIntent(ctx context.Context, transactionID string) (*domain.Transaction, *domain.PaymentIntent, error) {
	tx, err := r.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, nil, err
	}

	intent, err := r.intentRepo.GetByID(ctx, tx.PaymentIntentID)
	if err != nil {
		return nil, nil, err
	}

	return tx, intent, nil
}
