package dispatch

import (
	"context"
	"errors"
	"log"

	"payhub/internal/domain"
)

// ErrQueueFull is returned when the event buffer is at capacity.
// Publishers treat it as a delivery loss, not an operation failure.
var ErrQueueFull = errors.New("event queue full")

const defaultQueueSize = 256

// Dispatcher receives domain events from the core and delivers them
// asynchronously: a webhook POST to the merchant's registered URL and a
// notification email. Publish hands the event to a buffered channel and
// returns immediately; Run drains the channel until the context ends.
type Dispatcher struct {
	events   chan domain.Event
	webhooks *WebhookSender
	emails   *EmailNotifier
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(webhooks *WebhookSender, emails *EmailNotifier) *Dispatcher {
	return &Dispatcher{
		events:   make(chan domain.Event, defaultQueueSize),
		webhooks: webhooks,
		emails:   emails,
	}
}

// Publish enqueues an event for delivery without blocking. A full queue
// drops the event with ErrQueueFull rather than stalling the financial
// operation that produced it.
func (d *Dispatcher) Publish(ctx context.Context, event domain.Event) error {
	select {
	case d.events <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run consumes events until ctx is cancelled, then drains whatever is
// already buffered before returning.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case event := <-d.events:
			d.deliver(ctx, event)
		case <-ctx.Done():
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.events:
			// Shutdown path: deliver with a fresh context since the
			// run context is already cancelled.
			d.deliver(context.Background(), event)
		default:
			return
		}
	}
}

// deliver sends the webhook and email for one event. Failures are
// logged and never propagate back to the core.
func (d *Dispatcher) deliver(ctx context.Context, event domain.Event) {
	if event.Merchant == nil {
		log.Printf("event %s (%s) has no merchant, skipping delivery", event.ID, event.Type)
		return
	}

	if event.Merchant.WebhookURL != "" {
		if err := d.webhooks.Send(ctx, event.Merchant.WebhookURL, NewWebhookPayload(event)); err != nil {
			log.Printf("webhook delivery for event %s (%s) failed: %v", event.ID, event.Type, err)
		}
	}

	if event.Merchant.Email != "" {
		if err := d.emails.Notify(ctx, event); err != nil {
			log.Printf("email notification for event %s (%s) failed: %v", event.ID, event.Type, err)
		}
	}
}
