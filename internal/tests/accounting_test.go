package tests

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"payhub/internal/domain"
	"payhub/internal/service"
)

func TestAccountingEngine_Decide(t *testing.T) {
	t.Parallel()

	engine := service.NewAccountingEngine()
	intent := &domain.PaymentIntent{Amount: decimal.RequireFromString("100")}

	cases := []struct {
		name       string
		refunded   string
		amount     string
		wantStatus domain.PaymentIntentStatus
		wantErr    error
	}{
		{"full refund in one step", "0", "100", domain.PaymentIntentStatusRefunded, nil},
		{"partial refund", "0", "40", domain.PaymentIntentStatusPartiallyRefunded, nil},
		{"completes to exactly the amount", "60", "40", domain.PaymentIntentStatusRefunded, nil},
		{"overdraw by the smallest unit", "60", "40.01", "", service.ErrRefundExceedsBalance},
		{"overdraw outright", "40", "70", "", service.ErrRefundExceedsBalance},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, err := engine.Decide(intent,
				decimal.RequireFromString(tc.refunded),
				decimal.RequireFromString(tc.amount),
			)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status != tc.wantStatus {
				t.Errorf("expected %s, got %s", tc.wantStatus, status)
			}
		})
	}
}

// Fractional cent-level amounts must compare exactly, never with an
// epsilon: 33.33 + 66.67 is precisely 100.00.
func TestAccountingEngine_ExactDecimalComparison(t *testing.T) {
	t.Parallel()

	engine := service.NewAccountingEngine()
	intent := &domain.PaymentIntent{Amount: decimal.RequireFromString("100.00")}

	status, err := engine.Decide(intent,
		decimal.RequireFromString("33.33"),
		decimal.RequireFromString("66.67"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != domain.PaymentIntentStatusRefunded {
		t.Errorf("expected exact sum to reach REFUNDED, got %s", status)
	}

	_, err = engine.Decide(intent,
		decimal.RequireFromString("33.33"),
		decimal.RequireFromString("66.68"),
	)
	if !errors.Is(err, service.ErrRefundExceedsBalance) {
		t.Errorf("expected one hundredth over to overdraw, got %v", err)
	}
}

func TestAccountingEngine_RefundableRemainder(t *testing.T) {
	t.Parallel()

	engine := service.NewAccountingEngine()
	intent := &domain.PaymentIntent{Amount: decimal.RequireFromString("250.50")}

	remainder := engine.RefundableRemainder(intent, decimal.RequireFromString("100.25"))
	if !remainder.Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("expected remainder 150.25, got %s", remainder)
	}

	remainder = engine.RefundableRemainder(intent, decimal.Zero)
	if !remainder.Equal(intent.Amount) {
		t.Errorf("expected full amount refundable, got %s", remainder)
	}
}
