package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles merchant entity caching in Redis. Only identity
// lookups go through the cache; refund accounting always reads the
// database directly.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// MerchantCacheTTL bounds how long a revoked API key keeps resolving.
const MerchantCacheTTL = 60 * time.Second

const merchantKeyCachePrefix = "cache:merchant:apikey:"

// CachedMerchant represents a cached merchant identity.
type CachedMerchant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	WebhookURL string `json:"webhook_url"`
	Active     bool   `json:"active"`
}

// GetMerchantByAPIKey retrieves a merchant identity from cache.
// Returns nil on cache miss.
func (s *CacheStore) GetMerchantByAPIKey(ctx context.Context, apiKey string) (*CachedMerchant, error) {
	data, err := s.client.Get(ctx, merchantKeyCachePrefix+apiKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var merchant CachedMerchant
	if err := json.Unmarshal(data, &merchant); err != nil {
		return nil, err
	}

	return &merchant, nil
}

// SetMerchantByAPIKey stores a merchant identity in cache.
func (s *CacheStore) SetMerchantByAPIKey(ctx context.Context, apiKey string, merchant *CachedMerchant) error {
	data, err := json.Marshal(merchant)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, merchantKeyCachePrefix+apiKey, data, MerchantCacheTTL).Err()
}

// InvalidateMerchant removes a merchant identity from cache.
func (s *CacheStore) InvalidateMerchant(ctx context.Context, apiKey string) error {
	return s.client.Del(ctx, merchantKeyCachePrefix+apiKey).Err()
}
