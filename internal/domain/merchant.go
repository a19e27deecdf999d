package domain

import "time"

// Merchant is the party that creates payment intents and receives
// refund notifications. The core reads merchants only to validate
// ownership and to build event payloads.
type Merchant struct {
	ID         string
	Name       string
	Email      string
	APIKey     string
	WebhookURL string
	Active     bool
	CreatedAt  time.Time
}
