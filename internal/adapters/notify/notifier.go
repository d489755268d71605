// Package notify delivers candidate notifications.
package notify

import (
	"context"
	"errors"
)

// ErrDelivery is returned when a message could not be handed to the transport.
var ErrDelivery = errors.New("notification delivery failed")

// Recipient identifies who receives a notification.
type Recipient struct {
	Email     string
	FirstName string
}

// Notifier sends candidate-facing messages. Implementations must be safe for
// concurrent use.
type Notifier interface {
	NotifyWelcome(ctx context.Context, to Recipient) error
	NotifyTierAssigned(ctx context.Context, to Recipient, tier int, tierName string) error
}

// Message is a rendered notification.
type Message struct {
	To      string
	Subject string
	HTML    string
}
