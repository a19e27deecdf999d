package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const intentLockKeyPrefix = "lock:intent:"

// LockStore serializes refund approvals per payment intent. The lock is
// a plain SetNX key with a TTL: holding it means this process owns the
// read-decide-write span for that intent's balance. The TTL is the
// failure backstop; a crashed holder's lock evaporates on its own.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func intentLockKey(paymentIntentID string) string {
	return intentLockKeyPrefix + paymentIntentID
}

// AcquireIntentLock attempts to take the refund-approval lock for one
// payment intent. Returns false without error when another approval
// holds it; callers decide whether to retry.
func (s *LockStore) AcquireIntentLock(ctx context.Context, paymentIntentID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, intentLockKey(paymentIntentID), "1", ttl).Result()
}

// ReleaseIntentLock drops the refund-approval lock for one payment
// intent. Releasing a lock that already expired is a no-op.
func (s *LockStore) ReleaseIntentLock(ctx context.Context, paymentIntentID string) error {
	return s.client.Del(ctx, intentLockKey(paymentIntentID)).Err()
}
