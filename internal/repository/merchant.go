package repository

import (
	"context"

	"payhub/internal/domain"
)

// MerchantRepository defines read access to merchant records. Merchant
// provisioning happens outside this service; the core only resolves
// identities and event payload fields.
type MerchantRepository interface {
	// GetByID retrieves a merchant by ID.
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)

	// GetByAPIKey retrieves a merchant by its API key.
	// Returns nil if no merchant holds the given key.
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error)
}
