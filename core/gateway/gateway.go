package gateway

import (
	"context"
	"errors"
	"time"
)

// ErrDeliveryFailed is returned when the gateway could not deliver a
// message to the target address.
var ErrDeliveryFailed = errors.New("gateway: delivery failed")

// Gateway transports opaque text messages to external addresses. The
// core owns the message wording; the gateway owns nothing but transport.
type Gateway interface {
	// SendText delivers the text to the address and returns once the
	// gateway has accepted the message for delivery.
	SendText(ctx context.Context, address, text string) error
}

// InboundMessage is a reply delivered back by the gateway.
type InboundMessage struct {
	Address    string
	Text       string
	ReceivedAt time.Time
}

// InboundHandler consumes replies from the gateway.
type InboundHandler func(msg InboundMessage)
