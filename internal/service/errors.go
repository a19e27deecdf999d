package service

import "errors"

var (
	// ErrForbidden is returned when the acting principal does not own
	// the target entity.
	ErrForbidden = errors.New("actor not authorized for this entity")

	// ErrInvalidAmount is returned when a monetary amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidCurrency is returned when a currency is not supported.
	ErrInvalidCurrency = errors.New("unsupported currency")

	// ErrCurrencyMismatch is returned when an operation's currency does
	// not match the payment intent's currency.
	ErrCurrencyMismatch = errors.New("currency does not match payment intent")

	// ErrInvalidPaymentMethod is returned when a payment method is not supported.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrNoLineItems is returned when a payment intent is created without items.
	ErrNoLineItems = errors.New("payment intent requires at least one line item")

	// ErrIntentNotPending is returned when confirming a payment intent
	// that is not in PENDING state.
	ErrIntentNotPending = errors.New("payment intent not pending")

	// ErrIntentNotRefundable is returned when refunds are attempted
	// against a payment intent that is neither COMPLETED nor
	// PARTIALLY_REFUNDED.
	ErrIntentNotRefundable = errors.New("payment intent not in a refundable state")

	// ErrTransactionNotRefundable is returned when the transaction to
	// refund is not a successful confirmation.
	ErrTransactionNotRefundable = errors.New("transaction not in a refundable state")

	// ErrRefundNotPending is returned when approving or rejecting a
	// refund that has already been resolved.
	ErrRefundNotPending = errors.New("refund not pending")

	// ErrRefundExceedsBalance is returned when a refund amount would
	// push cumulative approved refunds past the original payment amount.
	ErrRefundExceedsBalance = errors.New("refund exceeds refundable balance")

	// ErrConcurrencyConflict is returned when a concurrent approval
	// against the same payment intent prevented this one from running.
	// The whole operation can be retried.
	ErrConcurrencyConflict = errors.New("concurrent refund approval in progress")

	// ErrMerchantInactive is returned when the acting merchant is deactivated.
	ErrMerchantInactive = errors.New("merchant is not active")
)
