package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"payhub/internal/domain"
	"payhub/internal/repository"
	"payhub/internal/service"
)

func newIntentService(f *refundFixture) *service.PaymentIntentService {
	return service.NewPaymentIntentService(f.intents, f.txs, f.merchants, f.recorder, f.publisher)
}

func TestCreatePaymentIntent_SumsLineItemsExactly(t *testing.T) {
	t.Parallel()

	f := newRefundFixture()
	svc := newIntentService(f)

	intent, err := svc.CreatePaymentIntent(context.Background(), service.CreatePaymentIntentParams{
		Actor: merchantActor,
		Items: []domain.LineItem{
			{Name: "Paperback", UnitAmount: decimal.RequireFromString("12.99"), Quantity: 3},
			{Name: "Shipping", UnitAmount: decimal.RequireFromString("4.50"), Quantity: 1},
		},
		Currency: domain.CurrencyUSD,
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	want := decimal.RequireFromString("43.47") // 12.99*3 + 4.50
	if !intent.Amount.Equal(want) {
		t.Errorf("expected amount %s, got %s", want, intent.Amount)
	}
	if intent.Status != domain.PaymentIntentStatusPending {
		t.Errorf("expected PENDING, got %s", intent.Status)
	}
	if intent.MerchantID != merchantActor.ID {
		t.Errorf("expected owner %s, got %s", merchantActor.ID, intent.MerchantID)
	}
	if !intent.ExpiresAt.After(intent.CreatedAt) {
		t.Error("expected default expiry after creation time")
	}
}

func TestCreatePaymentIntent_Validation(t *testing.T) {
	t.Parallel()

	f := newRefundFixture()
	svc := newIntentService(f)

	item := domain.LineItem{Name: "x", UnitAmount: decimal.RequireFromString("10"), Quantity: 1}

	cases := []struct {
		name   string
		params service.CreatePaymentIntentParams
		want   error
	}{
		{
			name:   "admin cannot create",
			params: service.CreatePaymentIntentParams{Actor: adminActor, Items: []domain.LineItem{item}, Currency: domain.CurrencyUSD},
			want:   service.ErrForbidden,
		},
		{
			name:   "no items",
			params: service.CreatePaymentIntentParams{Actor: merchantActor, Currency: domain.CurrencyUSD},
			want:   service.ErrNoLineItems,
		},
		{
			name: "non-positive unit amount",
			params: service.CreatePaymentIntentParams{
				Actor:    merchantActor,
				Items:    []domain.LineItem{{Name: "x", UnitAmount: decimal.Zero, Quantity: 1}},
				Currency: domain.CurrencyUSD,
			},
			want: service.ErrInvalidAmount,
		},
		{
			name: "zero quantity",
			params: service.CreatePaymentIntentParams{
				Actor:    merchantActor,
				Items:    []domain.LineItem{{Name: "x", UnitAmount: decimal.RequireFromString("5"), Quantity: 0}},
				Currency: domain.CurrencyUSD,
			},
			want: service.ErrInvalidAmount,
		},
		{
			name:   "unsupported currency",
			params: service.CreatePaymentIntentParams{Actor: merchantActor, Items: []domain.LineItem{item}, Currency: "GBP"},
			want:   service.ErrInvalidCurrency,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreatePaymentIntent(context.Background(), tc.params)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfirmPayment_TransitionsToCompleted(t *testing.T) {
	t.Parallel()

	f := newRefundFixture()
	svc := newIntentService(f)

	intent, err := svc.CreatePaymentIntent(context.Background(), service.CreatePaymentIntentParams{
		Actor:    merchantActor,
		Items:    []domain.LineItem{{Name: "Order", UnitAmount: decimal.RequireFromString("100"), Quantity: 1}},
		Currency: domain.CurrencyUSD,
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	tx, err := svc.ConfirmPayment(context.Background(), service.ConfirmPaymentParams{
		PaymentIntentID: intent.ID,
		Amount:          decimal.RequireFromString("100"),
		Currency:        domain.CurrencyUSD,
		Method:          domain.PaymentMethodMobileMoney,
		Actor:           merchantActor,
	})
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	if tx.Status != domain.TransactionStatusSuccess {
		t.Errorf("expected SUCCESS entry, got %s", tx.Status)
	}
	if tx.ParentTransactionID != "" {
		t.Error("confirmation entry must not carry a parent")
	}
	if got := f.intents.GetIntent(intent.ID).Status; got != domain.PaymentIntentStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", got)
	}

	event := f.publisher.LastEvent()
	if event == nil || event.Type != domain.EventPaymentConfirmed {
		t.Fatalf("expected PaymentConfirmed event, got %+v", event)
	}
}

func TestConfirmPayment_Rejections(t *testing.T) {
	t.Parallel()

	f := newRefundFixture()
	svc := newIntentService(f)

	intent, err := svc.CreatePaymentIntent(context.Background(), service.CreatePaymentIntentParams{
		Actor:    merchantActor,
		Items:    []domain.LineItem{{Name: "Order", UnitAmount: decimal.RequireFromString("100"), Quantity: 1}},
		Currency: domain.CurrencyUSD,
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	base := service.ConfirmPaymentParams{
		PaymentIntentID: intent.ID,
		Amount:          decimal.RequireFromString("100"),
		Currency:        domain.CurrencyUSD,
		Method:          domain.PaymentMethodCard,
		Actor:           merchantActor,
	}

	wrongOwner := base
	wrongOwner.Actor = otherMerchant
	if _, err := svc.ConfirmPayment(context.Background(), wrongOwner); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden for foreign merchant, got %v", err)
	}

	wrongAmount := base
	wrongAmount.Amount = decimal.RequireFromString("99")
	if _, err := svc.ConfirmPayment(context.Background(), wrongAmount); !errors.Is(err, service.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for short amount, got %v", err)
	}

	wrongCurrency := base
	wrongCurrency.Currency = domain.CurrencyEUR
	if _, err := svc.ConfirmPayment(context.Background(), wrongCurrency); !errors.Is(err, service.ErrCurrencyMismatch) {
		t.Errorf("expected ErrCurrencyMismatch, got %v", err)
	}

	// First valid confirmation succeeds, second hits the state check.
	if _, err := svc.ConfirmPayment(context.Background(), base); err != nil {
		t.Fatalf("valid confirmation failed: %v", err)
	}
	if _, err := svc.ConfirmPayment(context.Background(), base); !errors.Is(err, service.ErrIntentNotPending) {
		t.Errorf("expected ErrIntentNotPending on double confirmation, got %v", err)
	}
}

func TestExpireOverduePaymentIntents(t *testing.T) {
	t.Parallel()

	f := newRefundFixture()
	svc := newIntentService(f)
	now := time.Now()

	f.intents.AddIntent(&domain.PaymentIntent{
		ID: "overdue-1", MerchantID: "merchant-1",
		Status:    domain.PaymentIntentStatusPending,
		ExpiresAt: now.Add(-time.Minute),
	})
	f.intents.AddIntent(&domain.PaymentIntent{
		ID: "overdue-2", MerchantID: "merchant-1",
		Status:    domain.PaymentIntentStatusPending,
		ExpiresAt: now.Add(-time.Hour),
	})
	f.intents.AddIntent(&domain.PaymentIntent{
		ID: "fresh", MerchantID: "merchant-1",
		Status:    domain.PaymentIntentStatusPending,
		ExpiresAt: now.Add(time.Hour),
	})
	f.intents.AddIntent(&domain.PaymentIntent{
		ID: "completed", MerchantID: "merchant-1",
		Status:    domain.PaymentIntentStatusCompleted,
		ExpiresAt: now.Add(-time.Hour),
	})

	expired, err := svc.ExpireOverduePaymentIntents(context.Background(), now)
	if err != nil {
		t.Fatalf("expiry sweep: %v", err)
	}
	if expired != 2 {
		t.Errorf("expected 2 expired intents, got %d", expired)
	}

	if got := f.intents.GetIntent("overdue-1").Status; got != domain.PaymentIntentStatusExpired {
		t.Errorf("overdue-1 not expired: %s", got)
	}
	if got := f.intents.GetIntent("fresh").Status; got != domain.PaymentIntentStatusPending {
		t.Errorf("fresh intent touched by sweep: %s", got)
	}
	if got := f.intents.GetIntent("completed").Status; got != domain.PaymentIntentStatusCompleted {
		t.Errorf("completed intent touched by sweep: %s", got)
	}
}

// confirmingIntentRepo confirms every listed intent right after the
// list read, reproducing a payment confirmation that lands between the
// sweep's read and its status write.
type confirmingIntentRepo struct {
	*MockPaymentIntentRepository
}

func (r *confirmingIntentRepo) ListExpiredPending(ctx context.Context, now time.Time) ([]string, error) {
	ids, err := r.MockPaymentIntentRepository.ListExpiredPending(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := r.MockPaymentIntentRepository.UpdateStatus(ctx, id,
			domain.PaymentIntentStatusPending, domain.PaymentIntentStatusCompleted); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// A confirmation landing between the sweep's list read and its status
// write must win: the sweep may never overwrite COMPLETED with EXPIRED.
func TestExpireOverduePaymentIntents_DoesNotClobberConfirmedIntent(t *testing.T) {
	t.Parallel()

	f := newRefundFixture()
	now := time.Now()

	f.intents.AddIntent(&domain.PaymentIntent{
		ID: "paid-late", MerchantID: "merchant-1",
		Status:    domain.PaymentIntentStatusPending,
		ExpiresAt: now.Add(-time.Minute),
	})

	racing := &confirmingIntentRepo{MockPaymentIntentRepository: f.intents}
	svc := service.NewPaymentIntentService(racing, f.txs, f.merchants, f.recorder, f.publisher)

	expired, err := svc.ExpireOverduePaymentIntents(context.Background(), now)
	if err != nil {
		t.Fatalf("expiry sweep: %v", err)
	}
	if expired != 0 {
		t.Errorf("expected 0 expired intents, got %d", expired)
	}
	if got := f.intents.GetIntent("paid-late").Status; got != domain.PaymentIntentStatusCompleted {
		t.Errorf("confirmed intent overwritten by sweep: %s", got)
	}
}

// expiringUnitOfWork expires the intent just before the transactional
// function runs, reproducing an expiry sweep that wins the race against
// a confirmation's commit.
type expiringUnitOfWork struct {
	*MockUnitOfWork
	intentID string
}

func (u *expiringUnitOfWork) WithinTx(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	if err := u.Intents.UpdateStatus(ctx, u.intentID,
		domain.PaymentIntentStatusPending, domain.PaymentIntentStatusExpired); err != nil {
		return err
	}
	return u.MockUnitOfWork.WithinTx(ctx, fn)
}

func TestConfirmPayment_LosesRaceToExpiry(t *testing.T) {
	t.Parallel()

	f := newRefundFixture()

	f.intents.AddIntent(&domain.PaymentIntent{
		ID: "expiring", MerchantID: merchantActor.ID,
		Amount:    decimal.RequireFromString("100"),
		Currency:  domain.CurrencyUSD,
		Status:    domain.PaymentIntentStatusPending,
		ExpiresAt: time.Now().Add(time.Minute),
	})

	racing := &expiringUnitOfWork{MockUnitOfWork: f.uow, intentID: "expiring"}
	recorder := service.NewTransactionRecorder(racing, f.intents, f.txs)
	svc := service.NewPaymentIntentService(f.intents, f.txs, f.merchants, recorder, f.publisher)

	_, err := svc.ConfirmPayment(context.Background(), service.ConfirmPaymentParams{
		PaymentIntentID: "expiring",
		Amount:          decimal.RequireFromString("100"),
		Currency:        domain.CurrencyUSD,
		Method:          domain.PaymentMethodCard,
		Actor:           merchantActor,
	})
	if !errors.Is(err, service.ErrIntentNotPending) {
		t.Fatalf("expected ErrIntentNotPending, got %v", err)
	}
	if got := f.intents.GetIntent("expiring").Status; got != domain.PaymentIntentStatusExpired {
		t.Errorf("expected intent to stay EXPIRED, got %s", got)
	}
}

// One intent's write failure must not abort the rest of the sweep.
func TestExpireOverduePaymentIntents_ContinuesPastErrors(t *testing.T) {
	t.Parallel()

	f := newRefundFixture()
	svc := newIntentService(f)
	now := time.Now()

	f.intents.AddIntent(&domain.PaymentIntent{
		ID: "broken", MerchantID: "merchant-1",
		Status:    domain.PaymentIntentStatusPending,
		ExpiresAt: now.Add(-time.Minute),
	})
	f.intents.AddIntent(&domain.PaymentIntent{
		ID: "healthy", MerchantID: "merchant-1",
		Status:    domain.PaymentIntentStatusPending,
		ExpiresAt: now.Add(-time.Minute),
	})
	f.intents.UpdateStatusErrorFor["broken"] = errors.New("write refused")

	expired, err := svc.ExpireOverduePaymentIntents(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep must not fail on one intent: %v", err)
	}
	if expired != 1 {
		t.Errorf("expected 1 expired intent, got %d", expired)
	}
	if got := f.intents.GetIntent("healthy").Status; got != domain.PaymentIntentStatusExpired {
		t.Errorf("healthy intent not expired: %s", got)
	}
}
