package notifications

import (
	"context"
	"errors"
	"fmt"

	"salonbook-backend/models"
)

// ErrChannelNotConfigured is returned for channels without a sender.
var ErrChannelNotConfigured = errors.New("notifications: channel not configured")

// Message is one outbound notification on a single channel.
type Message struct {
	Channel   models.Channel
	Recipient string
	Subject   string
	Body      string
}

// Delivery is the provider's answer for an accepted message.
type Delivery struct {
	Status     models.DeliveryStatus
	ExternalID string
}

// Gateway sends notifications. Implementations report failures as errors;
// a nil error means the provider accepted the message.
type Gateway interface {
	Send(ctx context.Context, msg Message) (Delivery, error)
}

// Router dispatches each message to the sender registered for its channel.
type Router struct {
	senders map[models.Channel]Gateway
}

func NewRouter() *Router {
	return &Router{senders: make(map[models.Channel]Gateway)}
}

// Handle registers sender for ch. A nil sender is ignored.
func (r *Router) Handle(ch models.Channel, sender Gateway) *Router {
	if sender != nil {
		r.senders[ch] = sender
	}
	return r
}

func (r *Router) Handles(ch models.Channel) bool {
	_, ok := r.senders[ch]
	return ok
}

func (r *Router) Send(ctx context.Context, msg Message) (Delivery, error) {
	sender, ok := r.senders[msg.Channel]
	if !ok {
		return Delivery{}, fmt.Errorf("%w: %s", ErrChannelNotConfigured, msg.Channel)
	}
	if msg.Recipient == "" {
		return Delivery{}, fmt.Errorf("notifications: empty %s recipient", msg.Channel)
	}
	return sender.Send(ctx, msg)
}
