package dispatch

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ngantchou/warap-ai-sub004/core/gateway"
	"github.com/ngantchou/warap-ai-sub004/core/matching"
	"github.com/ngantchou/warap-ai-sub004/core/metrics"
	"github.com/ngantchou/warap-ai-sub004/core/model"
	"github.com/ngantchou/warap-ai-sub004/core/store"
	"github.com/ngantchou/warap-ai-sub004/infra/logger"
	"github.com/ngantchou/warap-ai-sub004/internal/eventbus"
)

func newTestManager(t *testing.T, cfg Config) (*DispatchManager, *store.MemoryStore, *gateway.MockGateway) {
	t.Helper()
	st := store.NewMemoryStore()
	gw := gateway.NewMockGateway()
	m := matching.NewMatcher(matching.Config{}, st, logger.NopLogger{})
	mgr, err := NewDispatchManager(m, gw, st, st, cfg, nil, eventbus.New(), logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return mgr, st, gw
}

func seedRequest(st *store.MemoryStore) model.Request {
	req := model.Request{
		ID:               "req-1",
		ServiceType:      "plomberie",
		Location:         "Bonamoussadi",
		Description:      "fuite d'eau sous l'évier",
		Urgency:          "urgent",
		RequesterAddress: "237699000000",
		Status:           model.StatusPending,
	}
	st.PutRequest(req)
	return req
}

// seedPool registers two eligible providers. The specialist outranks the
// generalist, so notifications go specialist first.
func seedPool(st *store.MemoryStore) (specialist, generalist model.Provider) {
	specialist = model.Provider{
		ID: "specialist", Name: "Jean Plombier", Address: "237650000001",
		IsActive: true, IsAvailable: true, Rating: 4.5, TotalJobs: 25,
		ServicesOffered: []string{"plomberie"},
		CoverageAreas:   []string{"bonamoussadi"},
	}
	generalist = model.Provider{
		ID: "generalist", Name: "Multi Services", Address: "237650000002",
		IsActive: true, IsAvailable: true, Rating: 3.0,
		ServicesOffered: []string{"plomberie", "électricité", "froid"},
		CoverageAreas:   []string{"bonamoussadi", "akwa"},
	}
	st.PutProvider(specialist)
	st.PutProvider(generalist)
	return specialist, generalist
}

// waitForNotification polls until the registry holds a SENT record for
// the address, mimicking the gateway callback path.
func waitForNotification(t *testing.T, mgr *DispatchManager, address string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if e := mgr.Registry().ByAddress(address); e != nil && e.Snapshot().State == StateSent {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no notification registered for %s", address)
}

func TestDispatchNoProviders(t *testing.T) {
	mgr, st, gw := newTestManager(t, Config{})
	req := seedRequest(st)

	out, err := mgr.Dispatch(context.Background(), req)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out.Kind != OutcomeNoProviders {
		t.Fatalf("outcome = %s, want no_providers", out.Kind)
	}
	r, _ := st.GetRequest(context.Background(), req.ID)
	if r.Status != model.StatusSearchFailed {
		t.Errorf("status = %s, want search_failed", r.Status)
	}
	if msgs := gw.SentTo(req.RequesterAddress); len(msgs) != 1 {
		t.Errorf("expected one requester notice, got %d", len(msgs))
	}
}

func TestDispatchFirstCandidateAccepts(t *testing.T) {
	mgr, st, gw := newTestManager(t, Config{ResponseTimeoutSeconds: 5, PollIntervalSeconds: 1})
	req := seedRequest(st)
	specialist, generalist := seedPool(st)

	done := make(chan Outcome, 1)
	go func() {
		out, _ := mgr.Dispatch(context.Background(), req)
		done <- out
	}()

	waitForNotification(t, mgr, specialist.Address)
	if !mgr.ProcessResponse(gateway.InboundMessage{Address: specialist.Address, Text: "OUI", ReceivedAt: time.Now()}) {
		t.Fatal("acceptance not terminal")
	}

	out := <-done
	if !out.Assigned() || out.ProviderID != specialist.ID {
		t.Fatalf("outcome = %+v, want assigned to specialist", out)
	}
	if out.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", out.Attempts)
	}
	// Single acceptance stops fallback: the generalist is never notified.
	if msgs := gw.SentTo(generalist.Address); len(msgs) != 0 {
		t.Errorf("generalist notified despite acceptance: %v", msgs)
	}
	r, _ := st.GetRequest(context.Background(), req.ID)
	if r.Status != model.StatusAssigned {
		t.Errorf("status = %s, want assigned", r.Status)
	}
	p, _ := st.GetProvider(context.Background(), specialist.ID)
	if p.ActiveJobs != 1 {
		t.Errorf("provider not bound: active jobs = %d", p.ActiveJobs)
	}
}

func TestDispatchFallbackOnRejection(t *testing.T) {
	mgr, st, gw := newTestManager(t, Config{ResponseTimeoutSeconds: 5, PollIntervalSeconds: 1})
	req := seedRequest(st)
	specialist, generalist := seedPool(st)

	done := make(chan Outcome, 1)
	go func() {
		out, _ := mgr.Dispatch(context.Background(), req)
		done <- out
	}()

	waitForNotification(t, mgr, specialist.Address)
	mgr.ProcessResponse(gateway.InboundMessage{Address: specialist.Address, Text: "NON", ReceivedAt: time.Now()})
	waitForNotification(t, mgr, generalist.Address)
	mgr.ProcessResponse(gateway.InboundMessage{Address: generalist.Address, Text: "ok je prends", ReceivedAt: time.Now()})

	out := <-done
	if !out.Assigned() || out.ProviderID != generalist.ID {
		t.Fatalf("outcome = %+v, want assigned to generalist", out)
	}
	if out.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", out.Attempts)
	}
	if n := len(gw.SentTo(specialist.Address)); n != 1 {
		t.Errorf("specialist notified %d times, want 1", n)
	}
	if n := len(gw.SentTo(generalist.Address)); n != 1 {
		t.Errorf("generalist notified %d times, want 1", n)
	}
}

func TestDispatchFallbackOnTimeout(t *testing.T) {
	mgr, st, _ := newTestManager(t, Config{ResponseTimeoutSeconds: 1, PollIntervalSeconds: 1})
	req := seedRequest(st)
	_, generalist := seedPool(st)

	done := make(chan Outcome, 1)
	go func() {
		out, _ := mgr.Dispatch(context.Background(), req)
		done <- out
	}()

	// Ignore the specialist; after the window closes the generalist must
	// be the very next candidate notified.
	waitForNotification(t, mgr, generalist.Address)
	mgr.ProcessResponse(gateway.InboundMessage{Address: generalist.Address, Text: "oui", ReceivedAt: time.Now()})

	out := <-done
	if !out.Assigned() || out.ProviderID != generalist.ID {
		t.Fatalf("outcome = %+v, want assigned to generalist after timeout", out)
	}
}

func TestDispatchDeliveryFailureFallsBack(t *testing.T) {
	mgr, st, gw := newTestManager(t, Config{ResponseTimeoutSeconds: 5, PollIntervalSeconds: 1})
	req := seedRequest(st)
	specialist, generalist := seedPool(st)
	gw.FailFor(specialist.Address)

	done := make(chan Outcome, 1)
	go func() {
		out, _ := mgr.Dispatch(context.Background(), req)
		done <- out
	}()

	// Delivery failure must not wait out the response window.
	waitForNotification(t, mgr, generalist.Address)
	mgr.ProcessResponse(gateway.InboundMessage{Address: generalist.Address, Text: "oui", ReceivedAt: time.Now()})

	out := <-done
	if !out.Assigned() || out.ProviderID != generalist.ID {
		t.Fatalf("outcome = %+v, want assigned to generalist", out)
	}
}

func TestDispatchExhaustion(t *testing.T) {
	mgr, st, gw := newTestManager(t, Config{ResponseTimeoutSeconds: 5, PollIntervalSeconds: 1})
	req := seedRequest(st)
	specialist, generalist := seedPool(st)

	done := make(chan Outcome, 1)
	go func() {
		out, _ := mgr.Dispatch(context.Background(), req)
		done <- out
	}()

	waitForNotification(t, mgr, specialist.Address)
	mgr.ProcessResponse(gateway.InboundMessage{Address: specialist.Address, Text: "non", ReceivedAt: time.Now()})
	waitForNotification(t, mgr, generalist.Address)
	mgr.ProcessResponse(gateway.InboundMessage{Address: generalist.Address, Text: "pas disponible", ReceivedAt: time.Now()})

	out := <-done
	if out.Kind != OutcomeExhausted {
		t.Fatalf("outcome = %s, want exhausted", out.Kind)
	}
	r, _ := st.GetRequest(context.Background(), req.ID)
	if r.Status != model.StatusSearchFailed {
		t.Errorf("status = %s, want search_failed", r.Status)
	}
	// The requester is told about the extended delay.
	msgs := gw.SentTo(req.RequesterAddress)
	if len(msgs) == 0 || !strings.Contains(msgs[len(msgs)-1].Text, "plus de temps") {
		t.Errorf("missing extended delay notice: %v", msgs)
	}
}

func TestDispatchNotifiesInRankedOrder(t *testing.T) {
	mgr, st, gw := newTestManager(t, Config{ResponseTimeoutSeconds: 5, PollIntervalSeconds: 1})
	req := seedRequest(st)
	specialist, generalist := seedPool(st)

	done := make(chan Outcome, 1)
	go func() {
		out, _ := mgr.Dispatch(context.Background(), req)
		done <- out
	}()

	waitForNotification(t, mgr, specialist.Address)
	mgr.ProcessResponse(gateway.InboundMessage{Address: specialist.Address, Text: "non", ReceivedAt: time.Now()})
	waitForNotification(t, mgr, generalist.Address)
	mgr.ProcessResponse(gateway.InboundMessage{Address: generalist.Address, Text: "non", ReceivedAt: time.Now()})
	<-done

	var providerSends []string
	for _, s := range gw.Sent() {
		if s.Address == specialist.Address || s.Address == generalist.Address {
			providerSends = append(providerSends, s.Address)
		}
	}
	if len(providerSends) != 2 || providerSends[0] != specialist.Address || providerSends[1] != generalist.Address {
		t.Fatalf("notification order %v, want specialist then generalist", providerSends)
	}
}

func TestDispatchCancellation(t *testing.T) {
	mgr, st, _ := newTestManager(t, Config{ResponseTimeoutSeconds: 30, PollIntervalSeconds: 1})
	req := seedRequest(st)
	specialist, _ := seedPool(st)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Outcome, 1)
	go func() {
		out, _ := mgr.Dispatch(ctx, req)
		done <- out
	}()

	waitForNotification(t, mgr, specialist.Address)
	cancel()

	out := <-done
	if out.Kind != OutcomeCancelled {
		t.Fatalf("outcome = %s, want cancelled", out.Kind)
	}
	r, _ := st.GetRequest(context.Background(), req.ID)
	if r.Status != model.StatusCancelled {
		t.Errorf("status = %s, want cancelled", r.Status)
	}
	if mgr.Registry().Active() != 0 {
		t.Error("registry not cleaned up after cancellation")
	}
}

type countingSink struct {
	mu       sync.Mutex
	outcomes []metrics.DispatchOutcome
	runs     []metrics.RunEvent
}

func (s *countingSink) RecordDispatchOutcome(o []metrics.DispatchOutcome) error {
	s.mu.Lock()
	s.outcomes = append(s.outcomes, o...)
	s.mu.Unlock()
	return nil
}

func (s *countingSink) RecordDispatchRun(ev metrics.RunEvent) error {
	s.mu.Lock()
	s.runs = append(s.runs, ev)
	s.mu.Unlock()
	return nil
}

func TestDispatchRecordsOutcomeMetrics(t *testing.T) {
	st := store.NewMemoryStore()
	gw := gateway.NewMockGateway()
	sink := &countingSink{}
	m := matching.NewMatcher(matching.Config{}, st, logger.NopLogger{})
	mgr, err := NewDispatchManager(m, gw, st, st, Config{ResponseTimeoutSeconds: 5, PollIntervalSeconds: 1}, sink, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	req := seedRequest(st)
	specialist, _ := seedPool(st)

	done := make(chan struct{})
	go func() {
		_, _ = mgr.Dispatch(context.Background(), req)
		close(done)
	}()
	waitForNotification(t, mgr, specialist.Address)
	mgr.ProcessResponse(gateway.InboundMessage{Address: specialist.Address, Text: "oui", ReceivedAt: time.Now()})
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.outcomes) != 1 {
		t.Fatalf("expected 1 outcome metric, got %d", len(sink.outcomes))
	}
	o := sink.outcomes[0]
	if o.State != "accepted" || o.ProviderID != specialist.ID || o.Latency <= 0 {
		t.Errorf("unexpected outcome metric: %+v", o)
	}
	if len(sink.runs) != 1 {
		t.Fatalf("expected 1 run metric, got %d", len(sink.runs))
	}
	run := sink.runs[0]
	if run.Outcome != OutcomeAssigned.String() || run.Status != model.StatusAssigned {
		t.Errorf("unexpected run metric: %+v", run)
	}
	if run.Candidates != 2 || run.Attempts != 1 {
		t.Errorf("run counts = %d candidates, %d attempts, want 2/1", run.Candidates, run.Attempts)
	}
}
