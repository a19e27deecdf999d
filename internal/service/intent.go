package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payhub/internal/domain"
	"payhub/internal/repository"
)

// defaultIntentLifetime is applied when a merchant does not supply an
// expiry for a new payment intent.
const defaultIntentLifetime = 24 * time.Hour

// PaymentIntentService handles the payment intent lifecycle up to the
// point refunds take over: creation, confirmation, and expiry.
type PaymentIntentService struct {
	intentRepo   repository.PaymentIntentRepository
	txRepo       repository.TransactionRepository
	merchantRepo repository.MerchantRepository
	recorder     *TransactionRecorder
	publisher    EventPublisher
}

// NewPaymentIntentService creates a new PaymentIntentService.
func NewPaymentIntentService(
	intentRepo repository.PaymentIntentRepository,
	txRepo repository.TransactionRepository,
	merchantRepo repository.MerchantRepository,
	recorder *TransactionRecorder,
	publisher EventPublisher,
) *PaymentIntentService {
	return &PaymentIntentService{
		intentRepo:   intentRepo,
		txRepo:       txRepo,
		merchantRepo: merchantRepo,
		recorder:     recorder,
		publisher:    publisher,
	}
}

// CreatePaymentIntentParams contains the parameters for creating a
// payment intent.
type CreatePaymentIntentParams struct {
	Actor     domain.Actor
	Items     []domain.LineItem
	Currency  domain.Currency
	Metadata  domain.IntentMetadata
	ExpiresAt time.Time // zero value applies the default lifetime
}

// CreatePaymentIntent creates a PENDING intent whose amount is the
// exact sum of its line items. The amount is fixed here for good:
// nothing mutates it afterward.
func (s *PaymentIntentService) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*domain.PaymentIntent, error) {
	if !params.Actor.IsMerchant() {
		return nil, ErrForbidden
	}

	if len(params.Items) == 0 {
		return nil, ErrNoLineItems
	}

	for _, item := range params.Items {
		if !item.UnitAmount.IsPositive() || item.Quantity <= 0 {
			return nil, ErrInvalidAmount
		}
	}

	if !params.Currency.Valid() {
		return nil, ErrInvalidCurrency
	}

	now := time.Now()
	expiresAt := params.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(defaultIntentLifetime)
	}

	intent := &domain.PaymentIntent{
		ID:         uuid.New().String(),
		MerchantID: params.Actor.ID,
		Items:      params.Items,
		Amount:     domain.SumItems(params.Items),
		Currency:   params.Currency,
		Status:     domain.PaymentIntentStatusPending,
		Metadata:   params.Metadata,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}

	if err := s.intentRepo.Create(ctx, intent); err != nil {
		return nil, err
	}

	return intent, nil
}

// GetPaymentIntent retrieves a payment intent. Admins may read any;
// merchants only their own.
func (s *PaymentIntentService) GetPaymentIntent(ctx context.Context, id string, actor domain.Actor) (*domain.PaymentIntent, error) {
	intent, err := s.intentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && intent.MerchantID != actor.ID {
		return nil, ErrForbidden
	}

	return intent, nil
}

// ListTransactions returns the ledger entries recorded against a
// payment intent, subject to the same access rule as GetPaymentIntent.
func (s *PaymentIntentService) ListTransactions(ctx context.Context, paymentIntentID string, actor domain.Actor) ([]*domain.Transaction, error) {
	if _, err := s.GetPaymentIntent(ctx, paymentIntentID, actor); err != nil {
		return nil, err
	}

	return s.txRepo.ListByPaymentIntent(ctx, paymentIntentID)
}

// ConfirmPaymentParams contains the parameters for recording an
// out-of-band payment confirmation.
type ConfirmPaymentParams struct {
	PaymentIntentID string
	Amount          decimal.Decimal
	Currency        domain.Currency
	Method          domain.PaymentMethod
	Actor           domain.Actor
	Metadata        domain.TransactionMetadata
}

// ConfirmPayment records a confirmation against a PENDING intent owned
// by the acting merchant and publishes a PaymentConfirmed event.
func (s *PaymentIntentService) ConfirmPayment(ctx context.Context, params ConfirmPaymentParams) (*domain.Transaction, error) {
	if !params.Actor.IsMerchant() {
		return nil, ErrForbidden
	}

	if !params.Method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	intent, err := s.intentRepo.GetByID(ctx, params.PaymentIntentID)
	if err != nil {
		return nil, err
	}

	if intent.MerchantID != params.Actor.ID {
		return nil, ErrForbidden
	}

	tx, intent, err := s.recorder.RecordConfirmation(ctx, RecordConfirmationParams{
		PaymentIntentID: params.PaymentIntentID,
		Amount:          params.Amount,
		Currency:        params.Currency,
		Method:          params.Method,
		Actor:           params.Actor,
		Metadata:        params.Metadata,
	})
	if err != nil {
		return nil, err
	}

	merchant, err := s.merchantRepo.GetByID(ctx, intent.MerchantID)
	if err != nil {
		log.Printf("load merchant for intent %s: %v", intent.ID, err)
		return tx, nil
	}

	if s.publisher != nil {
		event := domain.Event{
			ID:            uuid.New().String(),
			Type:          domain.EventPaymentConfirmed,
			Transaction:   tx,
			PaymentIntent: intent,
			Merchant:      merchant,
			OccurredAt:    time.Now(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("publish %s event for intent %s: %v", event.Type, intent.ID, err)
		}
	}

	return tx, nil
}

// ExpireOverduePaymentIntents transitions every PENDING intent whose
// expiry has passed to EXPIRED. One intent's failure never aborts the
// sweep; errors are logged and the rest proceed. Returns how many
// intents were expired.
func (s *PaymentIntentService) ExpireOverduePaymentIntents(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.intentRepo.ListExpiredPending(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		err := s.intentRepo.UpdateStatus(ctx, id,
			domain.PaymentIntentStatusPending, domain.PaymentIntentStatusExpired)
		if errors.Is(err, repository.ErrStaleEntity) {
			// A confirmation landed after the list read; the intent is
			// no longer ours to expire.
			continue
		}
		if err != nil {
			log.Printf("expire payment intent %s: %v", id, err)
			continue
		}
		expired++
	}

	return expired, nil
}
