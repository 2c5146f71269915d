package dispatch

import "time"

// State is the lifecycle state of one notification attempt.
type State int

const (
	StatePending State = iota
	StateSent
	StateAccepted
	StateRejected
	StateTimeout
	StateFailed
	StateAbandoned
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSent:
		return "sent"
	case StateAccepted:
		return "accepted"
	case StateRejected:
		return "rejected"
	case StateTimeout:
		return "timeout"
	case StateFailed:
		return "failed"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further response is expected in this state.
func (s State) Terminal() bool {
	switch s {
	case StateAccepted, StateRejected, StateTimeout, StateFailed, StateAbandoned:
		return true
	}
	return false
}

// DispatchRecord tracks one notification sent to one candidate. Records
// live in the registry while SENT and are discarded after the run; the
// external store archives terminal outcomes if needed.
type DispatchRecord struct {
	NotificationID string // unique id of the outbound notification
	RequestID      string
	ProviderID     string
	Address        string // messaging address the notification went to
	State          State
	AttemptIndex   int // position in the ranked candidate list
	SentAt         time.Time
	RespondedAt    time.Time
	ResponseText   string
}
