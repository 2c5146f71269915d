package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/ngantchou/warap-ai-sub004/core/events"
	"github.com/ngantchou/warap-ai-sub004/core/gateway"
)

// Verdict is the classification of a candidate reply.
type Verdict int

const (
	VerdictAmbiguous Verdict = iota
	VerdictAffirmative
	VerdictNegative
)

// Classifier matches replies against the configured token sets. Negative
// tokens are checked first so that "pas disponible" is not caught by the
// affirmative token "disponible".
type Classifier struct {
	affirmative []string
	negative    []string
}

// NewClassifier builds a classifier from lower-cased token sets.
func NewClassifier(affirmative, negative []string) *Classifier {
	c := &Classifier{
		affirmative: make([]string, len(affirmative)),
		negative:    make([]string, len(negative)),
	}
	for i, t := range affirmative {
		c.affirmative[i] = strings.ToLower(t)
	}
	for i, t := range negative {
		c.negative[i] = strings.ToLower(t)
	}
	return c
}

// Classify returns the verdict for a raw reply. Matching is lower-cased
// substring containment, the same heuristic the conversation layer uses.
// Genuinely ambiguous replies ("peut-être") match neither set.
func (c *Classifier) Classify(raw string) Verdict {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return VerdictAmbiguous
	}
	for _, t := range c.negative {
		if strings.Contains(text, t) {
			return VerdictNegative
		}
	}
	for _, t := range c.affirmative {
		if strings.Contains(text, t) {
			return VerdictAffirmative
		}
	}
	return VerdictAmbiguous
}

// ProcessResponse routes an inbound reply to the active SENT record for
// the sender's address and transitions its state. It returns true when
// the reply produced a terminal transition. It is the sole mutator
// triggered by inbound messages and is safe to call concurrently with
// the waiting dispatch loop: transitions are compare-and-set, so a reply
// arriving after a timeout already advanced the run is ignored, and a
// duplicate of an accepted reply cannot double-assign the request.
func (m *DispatchManager) ProcessResponse(msg gateway.InboundMessage) bool {
	entry := m.registry.ByAddress(msg.Address)
	if entry == nil {
		m.logger.Debugf("ignoring reply from %s: no active notification", msg.Address)
		return false
	}
	rec := entry.Snapshot()
	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	switch m.classifier.Classify(msg.Text) {
	case VerdictAffirmative:
		if entry.Transition(StateSent, StateAccepted, msg.Text, receivedAt) {
			m.publishResponse(rec, "accepted", receivedAt.Sub(rec.SentAt))
			return true
		}
		m.logger.Warnf("late acceptance from provider %s for request %s ignored (record %s)",
			rec.ProviderID, rec.RequestID, entry.Snapshot().State)
		m.publishResponse(rec, "ignored", 0)
		return false
	case VerdictNegative:
		if entry.Transition(StateSent, StateRejected, msg.Text, receivedAt) {
			m.publishResponse(rec, "rejected", receivedAt.Sub(rec.SentAt))
			return true
		}
		m.publishResponse(rec, "ignored", 0)
		return false
	default:
		// Neither side matched: ask for a clear answer and keep the
		// response window running.
		if err := m.gw.SendText(context.Background(), msg.Address, clarificationPrompt()); err != nil {
			m.logger.Errorf("clarification to %s: %v", msg.Address, err)
		}
		m.publishResponse(rec, "ambiguous", 0)
		return false
	}
}

func (m *DispatchManager) publishResponse(rec DispatchRecord, verdict string, latency time.Duration) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.ResponseEvent{
		RequestID:  rec.RequestID,
		ProviderID: rec.ProviderID,
		Verdict:    verdict,
		Latency:    latency,
	})
}
