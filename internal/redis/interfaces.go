package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireIntentLock(ctx context.Context, paymentIntentID string, ttl time.Duration) (bool, error)
	ReleaseIntentLock(ctx context.Context, paymentIntentID string) error
}

// MerchantCacheInterface defines the interface for merchant identity caching.
type MerchantCacheInterface interface {
	GetMerchantByAPIKey(ctx context.Context, apiKey string) (*CachedMerchant, error)
	SetMerchantByAPIKey(ctx context.Context, apiKey string, merchant *CachedMerchant) error
	InvalidateMerchant(ctx context.Context, apiKey string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface     = (*LockStore)(nil)
	_ MerchantCacheInterface = (*CacheStore)(nil)
)
