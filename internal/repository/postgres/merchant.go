package postgres

import (
	"context"
	"database/sql"
	"errors"

	"payhub/internal/domain"
	"payhub/internal/repository"
)

// MerchantRepository is a PostgreSQL implementation of repository.MerchantRepository.
type MerchantRepository struct {
	q Querier
}

// NewMerchantRepository creates a new PostgreSQL merchant repository.
func NewMerchantRepository(db *sql.DB) *MerchantRepository {
	return &MerchantRepository{q: db}
}

const merchantColumns = `id, name, email, api_key, webhook_url, active, created_at`

// GetByID retrieves a merchant by ID.
func (r *MerchantRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`

	merchant, err := r.scanMerchant(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return merchant, nil
}

// GetByAPIKey retrieves a merchant by its API key.
// Returns nil if no merchant holds the given key.
func (r *MerchantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE api_key = $1`

	merchant, err := r.scanMerchant(r.q.QueryRowContext(ctx, query, apiKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return merchant, nil
}

func (r *MerchantRepository) scanMerchant(row *sql.Row) (*domain.Merchant, error) {
	var merchant domain.Merchant
	err := row.Scan(
		&merchant.ID,
		&merchant.Name,
		&merchant.Email,
		&merchant.APIKey,
		&merchant.WebhookURL,
		&merchant.Active,
		&merchant.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &merchant, nil
}
