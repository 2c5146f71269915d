package metrics

import (
	"time"

	"github.com/ngantchou/warap-ai-sub004/core/model"
)

// DispatchOutcome represents the final state of one notification attempt.
type DispatchOutcome struct {
	RequestID    string
	ProviderID   string
	ServiceType  string
	State        string // accepted, rejected, timeout, failed, abandoned
	AttemptIndex int
	Score        float64
	Latency      time.Duration
	Time         time.Time
}

// MetricsSink records dispatch outcomes for observability purposes.
type MetricsSink interface {
	RecordDispatchOutcome(outcomes []DispatchOutcome) error
}

// NotificationEvent captures an outbound provider notification.
type NotificationEvent struct {
	RequestID    string
	ProviderID   string
	ServiceType  string
	AttemptIndex int
	Time         time.Time
}

// NotificationRecorder records outbound notifications.
type NotificationRecorder interface {
	RecordNotification(ev NotificationEvent) error
}

// ResponseLatency captures the delay between notification and reply.
type ResponseLatency struct {
	ProviderID  string
	ServiceType string
	Accepted    bool
	Latency     time.Duration
}

// LatencyRecorder records response latencies.
type LatencyRecorder interface {
	RecordResponseLatency(recs []ResponseLatency) error
}

// RunEvent summarises a completed dispatch run.
type RunEvent struct {
	RequestID  string
	Outcome    string // assigned, no_providers, exhausted, cancelled
	Candidates int
	Attempts   int
	Status     model.RequestStatus
	Time       time.Time
}

// RunRecorder records dispatch run summaries.
type RunRecorder interface {
	RecordDispatchRun(ev RunEvent) error
}

// NopSink implements every recorder interface with no-op methods.
type NopSink struct{}

func (NopSink) RecordDispatchOutcome([]DispatchOutcome) error { return nil }

func (NopSink) RecordNotification(NotificationEvent) error { return nil }

func (NopSink) RecordResponseLatency([]ResponseLatency) error { return nil }

func (NopSink) RecordDispatchRun(RunEvent) error { return nil }
