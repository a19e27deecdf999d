package service

import (
	"context"

	"payhub/internal/domain"
)

// EventPublisher hands immutable domain events off for asynchronous
// delivery. Publish must not block on delivery; the dispatcher owns
// webhook retries and email sending.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
