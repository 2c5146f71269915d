package dispatch

import (
	"testing"
	"time"
)

func TestRegistryRegisterLookup(t *testing.T) {
	r := NewRegistry()
	e := r.Register(DispatchRecord{RequestID: "r1", ProviderID: "p1", Address: "237600000001", State: StateSent})
	if r.Active() != 1 {
		t.Fatalf("active = %d, want 1", r.Active())
	}
	if got := r.ByRequest("r1"); got != e {
		t.Error("ByRequest returned wrong entry")
	}
	if got := r.ByAddress("237600000001"); got != e {
		t.Error("ByAddress returned wrong entry")
	}
	r.Unregister("r1")
	if r.Active() != 0 || r.ByAddress("237600000001") != nil {
		t.Error("unregister did not clear both indexes")
	}
}

func TestRegistrySharedAddressRouting(t *testing.T) {
	r := NewRegistry()
	// Two concurrent runs notify the same provider.
	first := r.Register(DispatchRecord{RequestID: "r1", ProviderID: "p1", Address: "237600000001", State: StateSent})
	second := r.Register(DispatchRecord{RequestID: "r2", ProviderID: "p1", Address: "237600000001", State: StateSent})

	// The reply routes to the oldest pending notification.
	if got := r.ByAddress("237600000001"); got != first {
		t.Fatal("reply did not route to the oldest pending notification")
	}
	if !first.Transition(StateSent, StateAccepted, "oui", time.Now()) {
		t.Fatal("transition failed")
	}
	// Once the first is settled the next pending one takes over.
	if got := r.ByAddress("237600000001"); got != second {
		t.Fatal("reply did not route to the next pending notification")
	}

	// Removing one run must not break routing for the other.
	r.Unregister("r1")
	if got := r.ByAddress("237600000001"); got != second {
		t.Fatal("unregister dropped an unrelated notification from the index")
	}
	r.Unregister("r2")
	if r.ByAddress("237600000001") != nil {
		t.Error("address index not cleared")
	}
}

func TestEntryTransitionFirstWriterWins(t *testing.T) {
	r := NewRegistry()
	e := r.Register(DispatchRecord{RequestID: "r1", Address: "a", State: StateSent})

	if !e.Transition(StateSent, StateTimeout, "", time.Now()) {
		t.Fatal("first transition should succeed")
	}
	// Late acceptance after the timeout already won.
	if e.Transition(StateSent, StateAccepted, "oui", time.Now()) {
		t.Fatal("second transition must fail")
	}
	if got := e.Snapshot().State; got != StateTimeout {
		t.Errorf("state = %s, want timeout", got)
	}
	select {
	case <-e.Done():
	default:
		t.Error("done channel not closed after terminal transition")
	}
}

func TestEntryTransitionRecordsResponse(t *testing.T) {
	r := NewRegistry()
	e := r.Register(DispatchRecord{RequestID: "r1", Address: "a", State: StateSent})
	at := time.Now()
	if !e.Transition(StateSent, StateAccepted, "OUI je prends", at) {
		t.Fatal("transition failed")
	}
	rec := e.Snapshot()
	if rec.ResponseText != "OUI je prends" || !rec.RespondedAt.Equal(at) {
		t.Errorf("response not recorded: %+v", rec)
	}
}

func TestStateTerminal(t *testing.T) {
	for s, want := range map[State]bool{
		StatePending:   false,
		StateSent:      false,
		StateAccepted:  true,
		StateRejected:  true,
		StateTimeout:   true,
		StateFailed:    true,
		StateAbandoned: true,
	} {
		if s.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, s.Terminal(), want)
		}
	}
}
