package gateway

import (
	"context"
	"sync"
)

// MockGateway records outbound messages and can be configured to fail
// delivery for specific addresses. Used in tests.
type MockGateway struct {
	mu      sync.Mutex
	sent    []SentMessage
	failFor map[string]bool
}

// SentMessage is one recorded outbound message.
type SentMessage struct {
	Address string
	Text    string
}

// NewMockGateway creates a new MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{failFor: make(map[string]bool)}
}

// FailFor makes SendText fail for the given address.
func (m *MockGateway) FailFor(address string) {
	m.mu.Lock()
	m.failFor[address] = true
	m.mu.Unlock()
}

// SendText records the message or returns ErrDeliveryFailed if the
// address is configured to fail.
func (m *MockGateway) SendText(_ context.Context, address, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[address] {
		return ErrDeliveryFailed
	}
	m.sent = append(m.sent, SentMessage{Address: address, Text: text})
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockGateway) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]SentMessage, len(m.sent))
	copy(cp, m.sent)
	return cp
}

// SentTo returns the messages sent to one address.
func (m *MockGateway) SentTo(address string) []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentMessage
	for _, s := range m.sent {
		if s.Address == address {
			out = append(out, s)
		}
	}
	return out
}
