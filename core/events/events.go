package events

import "time"

// NotificationEvent is published when a candidate is notified.
type NotificationEvent struct {
	RequestID    string
	ProviderID   string
	AttemptIndex int
	Time         time.Time
}

// ResponseEvent is published for each classified candidate reply.
// Verdict is "accepted", "rejected", "ambiguous" or "ignored".
type ResponseEvent struct {
	RequestID  string
	ProviderID string
	Verdict    string
	Latency    time.Duration
}

// OutcomeEvent is published when a dispatch run completes.
// Outcome is "assigned", "no_providers", "exhausted" or "cancelled".
type OutcomeEvent struct {
	RequestID  string
	ProviderID string
	Outcome    string
	Attempts   int
}
