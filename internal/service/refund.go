package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payhub/internal/domain"
	"payhub/internal/redis"
	"payhub/internal/repository"
)

const (
	// intentLockTTL bounds how long an approval can hold the
	// per-intent lock before it expires on its own.
	intentLockTTL = 10 * time.Second

	lockAttempts      = 3
	lockInitialDelay  = 50 * time.Millisecond
	lockDelayMultiple = 2
)

// RefundService governs the refund state machine: PENDING refunds are
// created by merchants and resolved exactly once by administrators.
//
// ApproveRefund serializes per payment intent: a distributed lock keyed
// on the intent covers the read-decide-write span so two approvals
// against the same intent can never both pass the overdraw check on a
// stale sum, and all of one approval's writes commit in a single
// database transaction in the order intent status, refund ledger entry,
// refund resolution.
type RefundService struct {
	uow          repository.UnitOfWork
	refundRepo   repository.RefundRepository
	merchantRepo repository.MerchantRepository
	recorder     *TransactionRecorder
	engine       *AccountingEngine
	lockStore    redis.LockStoreInterface
	publisher    EventPublisher
}

// NewRefundService creates a new RefundService.
func NewRefundService(
	uow repository.UnitOfWork,
	refundRepo repository.RefundRepository,
	merchantRepo repository.MerchantRepository,
	recorder *TransactionRecorder,
	engine *AccountingEngine,
	lockStore redis.LockStoreInterface,
	publisher EventPublisher,
) *RefundService {
	return &RefundService{
		uow:          uow,
		refundRepo:   refundRepo,
		merchantRepo: merchantRepo,
		recorder:     recorder,
		engine:       engine,
		lockStore:    lockStore,
		publisher:    publisher,
	}
}

// RequestRefundParams contains the parameters for requesting a refund.
type RequestRefundParams struct {
	TransactionID string
	Amount        decimal.Decimal
	Reason        string
	Actor         domain.Actor
}

// RequestRefund creates a PENDING refund against a successful
// transaction. Only the merchant owning the payment intent may request,
// and the amount must fit inside the refundable remainder at request
// time. The remainder is re-checked at approval, so passing here does
// not reserve balance.
func (s *RefundService) RequestRefund(ctx context.Context, params RequestRefundParams) (*domain.Refund, error) {
	if !params.Actor.IsMerchant() {
		return nil, ErrForbidden
	}

	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	tx, intent, err := s.recorder.GetTransactionAndPaymentIntent(ctx, params.TransactionID)
	if err != nil {
		return nil, err
	}

	if intent.MerchantID != params.Actor.ID {
		return nil, ErrForbidden
	}

	if !intent.Status.Refundable() {
		return nil, ErrIntentNotRefundable
	}

	if tx.Status != domain.TransactionStatusSuccess {
		return nil, ErrTransactionNotRefundable
	}

	refundedSoFar, err := s.refundRepo.SumApprovedAmount(ctx, intent.ID)
	if err != nil {
		return nil, err
	}

	if params.Amount.GreaterThan(s.engine.RefundableRemainder(intent, refundedSoFar)) {
		return nil, ErrRefundExceedsBalance
	}

	refund := &domain.Refund{
		ID:            uuid.New().String(),
		TransactionID: tx.ID,
		Status:        domain.RefundStatusPending,
		Amount:        params.Amount,
		Currency:      intent.Currency,
		Reason:        params.Reason,
		RequestedAt:   time.Now(),
	}

	if err := s.refundRepo.Create(ctx, refund); err != nil {
		return nil, err
	}

	return refund, nil
}

// ApproveRefund resolves a PENDING refund as APPROVED, writing the
// refund ledger entry and the resulting payment intent status. The
// admin acts with system-wide authority, so merchant ownership is not
// re-validated; the owning merchant is loaded for the event payload.
func (s *RefundService) ApproveRefund(ctx context.Context, refundID string, admin domain.Actor) (*domain.Refund, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	refund, err := s.refundRepo.GetByID(ctx, refundID)
	if err != nil {
		return nil, err
	}

	if refund.Status != domain.RefundStatusPending {
		return nil, ErrRefundNotPending
	}

	original, intent, err := s.recorder.GetTransactionAndPaymentIntent(ctx, refund.TransactionID)
	if err != nil {
		return nil, err
	}

	if err := s.acquireIntentLock(ctx, intent.ID); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.lockStore.ReleaseIntentLock(ctx, intent.ID); err != nil {
			log.Printf("release intent lock %s: %v", intent.ID, err)
		}
	}()

	// Re-read everything under the lock: a concurrent approval may
	// have resolved this refund or moved the intent between our first
	// read and lock acquisition.
	refund, err = s.refundRepo.GetByID(ctx, refundID)
	if err != nil {
		return nil, err
	}

	if refund.Status != domain.RefundStatusPending {
		return nil, ErrRefundNotPending
	}

	intent, err = s.recorder.intentRepo.GetByID(ctx, intent.ID)
	if err != nil {
		return nil, err
	}

	if !intent.Status.Refundable() {
		return nil, ErrIntentNotRefundable
	}

	merchant, err := s.merchantRepo.GetByID(ctx, intent.MerchantID)
	if err != nil {
		return nil, err
	}

	refundedSoFar, err := s.refundRepo.SumApprovedAmount(ctx, intent.ID)
	if err != nil {
		return nil, err
	}

	newStatus, err := s.engine.Decide(intent, refundedSoFar, refund.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var refundTx *domain.Transaction

	// Write order inside the transaction: intent status first, ledger
	// entry second, refund resolution last. A crash mid-sequence can
	// never leave an APPROVED refund without its ledger effects.
	err = s.uow.WithinTx(ctx, func(ledger repository.LedgerTx) error {
		if err := ledger.PaymentIntents().UpdateStatus(ctx, intent.ID, intent.Status, newStatus); err != nil {
			return err
		}

		refundTx, err = s.recorder.RecordRefundTransaction(ctx, ledger, original, refund, admin)
		if err != nil {
			return err
		}

		return ledger.Refunds().MarkApproved(ctx, refund.ID, admin.ID, now)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleEntity) {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}

	intent.Status = newStatus
	refund.Status = domain.RefundStatusApproved
	refund.ResolvedBy = admin.ID
	refund.ApprovedAt = &now

	s.publish(ctx, domain.Event{
		ID:            uuid.New().String(),
		Type:          domain.EventRefundApproved,
		Refund:        refund,
		Transaction:   refundTx,
		PaymentIntent: intent,
		Merchant:      merchant,
		OccurredAt:    now,
	})

	return refund, nil
}

// RejectRefund resolves a PENDING refund as REJECTED with a reason.
// Rejection never touches the ledger or the payment intent.
func (s *RefundService) RejectRefund(ctx context.Context, refundID, reason string, admin domain.Actor) (*domain.Refund, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	refund, err := s.refundRepo.GetByID(ctx, refundID)
	if err != nil {
		return nil, err
	}

	if refund.Status != domain.RefundStatusPending {
		return nil, ErrRefundNotPending
	}

	now := time.Now()
	if err := s.refundRepo.MarkRejected(ctx, refund.ID, reason, admin.ID, now); err != nil {
		if errors.Is(err, repository.ErrStaleEntity) {
			// Another admin resolved it between our read and write.
			return nil, ErrRefundNotPending
		}
		return nil, err
	}

	refund.Status = domain.RefundStatusRejected
	refund.RejectedReason = reason
	refund.ResolvedBy = admin.ID
	refund.RejectedAt = &now

	tx, intent, err := s.recorder.GetTransactionAndPaymentIntent(ctx, refund.TransactionID)
	if err != nil {
		log.Printf("load event payload for refund %s: %v", refund.ID, err)
		return refund, nil
	}

	merchant, err := s.merchantRepo.GetByID(ctx, intent.MerchantID)
	if err != nil {
		log.Printf("load merchant for refund %s: %v", refund.ID, err)
		return refund, nil
	}

	s.publish(ctx, domain.Event{
		ID:            uuid.New().String(),
		Type:          domain.EventRefundRejected,
		Refund:        refund,
		Transaction:   tx,
		PaymentIntent: intent,
		Merchant:      merchant,
		OccurredAt:    now,
	})

	return refund, nil
}

// GetRefund retrieves a refund. Admins may read any refund; merchants
// only those against their own payment intents.
func (s *RefundService) GetRefund(ctx context.Context, refundID string, actor domain.Actor) (*domain.Refund, error) {
	refund, err := s.refundRepo.GetByID(ctx, refundID)
	if err != nil {
		return nil, err
	}

	if actor.IsAdmin() {
		return refund, nil
	}

	_, intent, err := s.recorder.GetTransactionAndPaymentIntent(ctx, refund.TransactionID)
	if err != nil {
		return nil, err
	}

	if intent.MerchantID != actor.ID {
		return nil, ErrForbidden
	}

	return refund, nil
}

// acquireIntentLock tries the per-intent lock a bounded number of times
// with doubling delay, surfacing ErrConcurrencyConflict when exhausted.
func (s *RefundService) acquireIntentLock(ctx context.Context, paymentIntentID string) error {
	delay := lockInitialDelay

	for attempt := 0; attempt < lockAttempts; attempt++ {
		ok, err := s.lockStore.AcquireIntentLock(ctx, paymentIntentID, intentLockTTL)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if attempt < lockAttempts-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= lockDelayMultiple
		}
	}

	return ErrConcurrencyConflict
}

// publish hands an event to the dispatcher. Delivery is the
// dispatcher's concern; a publish failure never fails the operation
// that produced the event.
func (s *RefundService) publish(ctx context.Context, event domain.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish %s event for refund %s: %v", event.Type, event.Refund.ID, err)
	}
}
