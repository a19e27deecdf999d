package service

import (
	"github.com/shopspring/decimal"

	"payhub/internal/domain"
)

// AccountingEngine decides the payment intent status that results from
// approving a refund, and rejects approvals that would overdraw the
// original payment. All arithmetic is exact decimal.
type AccountingEngine struct{}

// NewAccountingEngine creates a new AccountingEngine.
func NewAccountingEngine() *AccountingEngine {
	return &AccountingEngine{}
}

// Decide computes the status the payment intent moves to when a refund
// of refundAmount is approved on top of refundedSoFar already-approved
// refunds. refundedSoFar excludes the refund being approved, which is
// still PENDING at read time.
func (e *AccountingEngine) Decide(intent *domain.PaymentIntent, refundedSoFar, refundAmount decimal.Decimal) (domain.PaymentIntentStatus, error) {
	totalAfter := refundedSoFar.Add(refundAmount)

	switch totalAfter.Cmp(intent.Amount) {
	case 0:
		return domain.PaymentIntentStatusRefunded, nil
	case -1:
		return domain.PaymentIntentStatusPartiallyRefunded, nil
	default:
		return "", ErrRefundExceedsBalance
	}
}

// RefundableRemainder returns how much of the intent's amount is still
// refundable given the already-approved total.
func (e *AccountingEngine) RefundableRemainder(intent *domain.PaymentIntent, refundedSoFar decimal.Decimal) decimal.Decimal {
	return intent.Amount.Sub(refundedSoFar)
}
