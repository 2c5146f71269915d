package dispatch

import (
	"sync"
	"time"
)

// Entry is one registered in-flight notification. All state reads and
// writes go through the entry lock so the dispatch loop and the inbound
// response handler cannot race a terminal transition.
type Entry struct {
	mu   sync.Mutex
	rec  DispatchRecord
	done chan struct{}
}

// Snapshot returns a copy of the record.
func (e *Entry) Snapshot() DispatchRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec
}

// Transition atomically moves the record from one state to another. It
// returns false if the record is no longer in the from state, in which
// case nothing is modified: the first terminal writer wins. A successful
// terminal transition closes the done channel, waking any waiter.
func (e *Entry) Transition(from, to State, responseText string, at time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.State != from {
		return false
	}
	e.rec.State = to
	if responseText != "" {
		e.rec.ResponseText = responseText
		e.rec.RespondedAt = at
	}
	if to.Terminal() {
		close(e.done)
	}
	return true
}

// Done is closed once the record reaches a terminal state.
func (e *Entry) Done() <-chan struct{} { return e.done }

// Registry holds the active notifications of in-flight dispatch runs. It
// is keyed by request id, with a provider-address index used to route
// inbound replies. A provider can carry notifications from several
// concurrent runs, so the address index keeps them all in notification
// order. The registry lock only guards the maps; record state is
// protected per entry, so unrelated requests never contend.
type Registry struct {
	mu        sync.RWMutex
	byRequest map[string]*Entry
	byAddress map[string][]*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byRequest: make(map[string]*Entry),
		byAddress: make(map[string][]*Entry),
	}
}

// Register stores the record and returns its entry.
func (r *Registry) Register(rec DispatchRecord) *Entry {
	e := &Entry{rec: rec, done: make(chan struct{})}
	r.mu.Lock()
	r.byRequest[rec.RequestID] = e
	r.byAddress[rec.Address] = append(r.byAddress[rec.Address], e)
	r.mu.Unlock()
	return e
}

// Unregister removes the entry for the request, if any. Other entries
// indexed under the same provider address stay routable.
func (r *Registry) Unregister(requestID string) {
	r.mu.Lock()
	if e, ok := r.byRequest[requestID]; ok {
		delete(r.byRequest, requestID)
		entries := r.byAddress[e.rec.Address]
		for i, cur := range entries {
			if cur == e {
				entries = append(entries[:i], entries[i+1:]...)
				break
			}
		}
		if len(entries) == 0 {
			delete(r.byAddress, e.rec.Address)
		} else {
			r.byAddress[e.rec.Address] = entries
		}
	}
	r.mu.Unlock()
}

// ByRequest returns the active entry for the request, or nil.
func (r *Registry) ByRequest(requestID string) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byRequest[requestID]
}

// ByAddress returns the entry an inbound reply from the provider address
// should route to: the oldest notification still awaiting a response. If
// every registered notification is already terminal the oldest one is
// returned so the caller can log the late reply. Returns nil when the
// address has no registered notification at all.
func (r *Registry) ByAddress(address string) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.byAddress[address]
	for _, e := range entries {
		if !e.Snapshot().State.Terminal() {
			return e
		}
	}
	if len(entries) > 0 {
		return entries[0]
	}
	return nil
}

// Active returns the number of in-flight notifications.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byRequest)
}
