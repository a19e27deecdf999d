package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency represents a supported settlement currency.
type Currency string

const (
	CurrencyRWF Currency = "RWF"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Valid reports whether the currency is one of the supported set.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyRWF, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// PaymentIntentStatus represents the lifecycle state of a payment intent.
type PaymentIntentStatus string

const (
	PaymentIntentStatusPending           PaymentIntentStatus = "PENDING"
	PaymentIntentStatusCompleted         PaymentIntentStatus = "COMPLETED"
	PaymentIntentStatusFailed            PaymentIntentStatus = "FAILED"
	PaymentIntentStatusCancelled         PaymentIntentStatus = "CANCELLED"
	PaymentIntentStatusExpired           PaymentIntentStatus = "EXPIRED"
	PaymentIntentStatusRefunded          PaymentIntentStatus = "REFUNDED"
	PaymentIntentStatusPartiallyRefunded PaymentIntentStatus = "PARTIALLY_REFUNDED"
)

// Refundable reports whether refunds may be requested against an intent
// in this status.
func (s PaymentIntentStatus) Refundable() bool {
	return s == PaymentIntentStatusCompleted || s == PaymentIntentStatusPartiallyRefunded
}

// LineItem is a single billable entry on a payment intent.
type LineItem struct {
	Name       string
	UnitAmount decimal.Decimal
	Quantity   int64
}

// Total returns UnitAmount * Quantity.
func (i LineItem) Total() decimal.Decimal {
	return i.UnitAmount.Mul(decimal.NewFromInt(i.Quantity))
}

// IntentMetadata carries merchant-supplied reference data.
type IntentMetadata struct {
	ReferenceID   string
	CustomerEmail string
	CustomerPhone string
}

// PaymentIntent represents an amount a merchant's customer owes.
// Amount is fixed at creation time as the sum of the line items and is
// never mutated afterward; only Status changes over the lifecycle.
type PaymentIntent struct {
	ID         string
	MerchantID string
	Items      []LineItem
	Amount     decimal.Decimal
	Currency   Currency
	Status     PaymentIntentStatus
	Metadata   IntentMetadata
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// SumItems returns the exact total of the line items.
func SumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return total
}
