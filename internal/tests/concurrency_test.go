package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"payhub/internal/domain"
	"payhub/internal/service"
)

// Two approvals race on the same payment intent with a combined amount
// over the original payment. Whatever the interleaving, at most one may
// succeed: the loser either sees the updated sum and overdraws, or
// gives up on the contended lock.
func TestConcurrentApprovals_NeverDoubleSpend(t *testing.T) {
	t.Parallel()

	f := newRefundFixture()
	intent, original := f.seedCompletedIntent("intent-1", "100")
	first := f.requestRefund(t, original.ID, "60", "race a")
	second := f.requestRefund(t, original.ID, "60", "race b")

	var wg sync.WaitGroup
	results := make([]error, 2)

	for i, id := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func(slot int, refundID string) {
			defer wg.Done()
			_, err := f.refundSvc.ApproveRefund(context.Background(), refundID, adminActor)
			results[slot] = err
		}(i, id)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrRefundExceedsBalance),
			errors.Is(err, service.ErrConcurrencyConflict):
			// Acceptable loser outcomes.
		default:
			t.Fatalf("unexpected approval error: %v", err)
		}
	}

	if successes != 1 {
		t.Fatalf("expected exactly one successful approval, got %d", successes)
	}

	sum, err := f.refunds.SumApprovedAmount(context.Background(), intent.ID)
	if err != nil {
		t.Fatalf("sum approved: %v", err)
	}
	if !sum.Equal(decimal.RequireFromString("60")) {
		t.Fatalf("expected approved sum 60 after the race, got %s", sum)
	}

	if got := f.intents.GetIntent(intent.ID).Status; got != domain.PaymentIntentStatusPartiallyRefunded {
		t.Errorf("expected PARTIALLY_REFUNDED after one 60 refund, got %s", got)
	}
}

// A permanently held lock exhausts the bounded acquire retries.
func TestApproveRefund_ContendedLockSurfacesConflict(t *testing.T) {
	t.Parallel()

	f := newRefundFixture()
	intent, original := f.seedCompletedIntent("intent-1", "100")
	refund := f.requestRefund(t, original.ID, "100", "held")

	ok, err := f.locks.AcquireIntentLock(context.Background(), intent.ID, 0)
	if err != nil || !ok {
		t.Fatalf("pre-acquire lock: ok=%v err=%v", ok, err)
	}

	_, err = f.refundSvc.ApproveRefund(context.Background(), refund.ID, adminActor)
	if !errors.Is(err, service.ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}

	if got := f.refunds.GetRefund(refund.ID).Status; got != domain.RefundStatusPending {
		t.Errorf("conflicted approval mutated the refund: %s", got)
	}
	if f.locks.ContendedCount() == 0 {
		t.Error("expected acquire attempts to hit the held lock")
	}
}

// The lock is released on both success and failure so later approvals
// are not starved.
func TestApproveRefund_ReleasesLock(t *testing.T) {
	t.Parallel()

	f := newRefundFixture()
	_, original := f.seedCompletedIntent("intent-1", "100")
	first := f.requestRefund(t, original.ID, "30", "one")
	second := f.requestRefund(t, original.ID, "30", "two")

	if _, err := f.refundSvc.ApproveRefund(context.Background(), first.ID, adminActor); err != nil {
		t.Fatalf("first approval: %v", err)
	}

	if _, err := f.refundSvc.ApproveRefund(context.Background(), second.ID, adminActor); err != nil {
		t.Fatalf("second approval blocked, lock not released: %v", err)
	}
}
