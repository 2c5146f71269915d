package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/ngantchou/warap-ai-sub004/core/metrics"
)

func TestPromSinkRecordDispatchOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink, ok := sinkIf.(*PromSink)
	if !ok {
		t.Fatalf("expected PromSink")
	}

	outcomes := []coremetrics.DispatchOutcome{
		{RequestID: "r1", ProviderID: "p1", ServiceType: "plomberie", State: "accepted", Latency: 2 * time.Minute, Time: time.Now()},
		{RequestID: "r2", ProviderID: "p2", ServiceType: "plomberie", State: "timeout", Time: time.Now()},
	}
	if err := sink.RecordDispatchOutcome(outcomes); err != nil {
		t.Fatalf("record: %v", err)
	}

	got := testutil.ToFloat64(sink.outcomes.WithLabelValues("plomberie", "accepted"))
	if got != 1 {
		t.Errorf("accepted counter = %v, want 1", got)
	}
	got = testutil.ToFloat64(sink.outcomes.WithLabelValues("plomberie", "timeout"))
	if got != 1 {
		t.Errorf("timeout counter = %v, want 1", got)
	}
}

func TestPromSinkRecordRunAndNotification(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink := sinkIf.(*PromSink)

	if err := sink.RecordNotification(coremetrics.NotificationEvent{ServiceType: "plomberie"}); err != nil {
		t.Fatalf("notification: %v", err)
	}
	if err := sink.RecordDispatchRun(coremetrics.RunEvent{Outcome: "exhausted"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := testutil.ToFloat64(sink.notifications.WithLabelValues("plomberie")); got != 1 {
		t.Errorf("notifications counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.runs.WithLabelValues("exhausted")); got != 1 {
		t.Errorf("runs counter = %v, want 1", got)
	}
}

func TestPromSinkReregister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("second registration must reuse collectors: %v", err)
	}
}
