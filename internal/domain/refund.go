package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefundStatus represents the state of a refund request.
type RefundStatus string

const (
	RefundStatusPending  RefundStatus = "PENDING"
	RefundStatusApproved RefundStatus = "APPROVED"
	RefundStatusRejected RefundStatus = "REJECTED"
)

// Refund is a request to reverse part or all of a transaction's amount.
// PENDING is the only non-terminal state; once APPROVED or REJECTED the
// record is immutable. ApprovedAt and RejectedAt are mutually exclusive.
type Refund struct {
	ID             string
	TransactionID  string
	Status         RefundStatus
	Amount         decimal.Decimal
	Currency       Currency
	Reason         string
	RejectedReason string
	RequestedAt    time.Time
	ResolvedBy     string
	ApprovedAt     *time.Time
	RejectedAt     *time.Time
}
