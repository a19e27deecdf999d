package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a customer settled a payment.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCash         PaymentMethod = "CASH"
)

// Valid reports whether the payment method is one of the supported set.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodMobileMoney, PaymentMethodBankTransfer, PaymentMethodCash:
		return true
	}
	return false
}

// TransactionStatus represents the outcome recorded on a ledger entry.
type TransactionStatus string

const (
	TransactionStatusSuccess  TransactionStatus = "SUCCESS"
	TransactionStatusFailed   TransactionStatus = "FAILED"
	TransactionStatusRefunded TransactionStatus = "REFUNDED"
)

// TransactionMetadata carries contact and reference details captured at
// confirmation time, plus the refund reason when the entry reverses an
// earlier transaction.
type TransactionMetadata struct {
	CustomerEmail string
	CustomerPhone string
	ReferenceID   string
	FailureReason string
	RefundReason  string
	Extra         map[string]string
}

// Transaction is an append-only ledger entry against a payment intent.
// Entries are never mutated or deleted after creation. A refund entry
// carries ParentTransactionID pointing at the original entry it reverses
// and shares that entry's PaymentIntentID.
type Transaction struct {
	ID                  string
	PaymentIntentID     string
	ParentTransactionID string
	Amount              decimal.Decimal
	Currency            Currency
	Method              PaymentMethod
	Status              TransactionStatus
	ConfirmedAt         time.Time
	ActorID             string
	ActorRole           ActorRole
	Metadata            TransactionMetadata
}
