package store

import (
	"context"
	"sync"
	"time"

	"github.com/ngantchou/warap-ai-sub004/core/model"
)

// MemoryStore is an in-memory implementation of RequestStore and
// ProviderStore. It backs the standalone service and the test suites;
// production deployments wire the real database adapters instead.
type MemoryStore struct {
	mu        sync.RWMutex
	requests  map[string]model.Request
	providers map[string]model.Provider
	history   map[string][]historyEntry
}

type historyEntry struct {
	latency time.Duration
	at      time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests:  make(map[string]model.Request),
		providers: make(map[string]model.Provider),
		history:   make(map[string][]historyEntry),
	}
}

// PutRequest inserts or replaces a request.
func (s *MemoryStore) PutRequest(r model.Request) {
	s.mu.Lock()
	s.requests[r.ID] = r
	s.mu.Unlock()
}

// PutProvider inserts or replaces a provider snapshot.
func (s *MemoryStore) PutProvider(p model.Provider) {
	s.mu.Lock()
	s.providers[p.ID] = p
	s.mu.Unlock()
}

// AddResponseTime records a historical acceptance latency for a provider.
func (s *MemoryStore) AddResponseTime(providerID string, latency time.Duration, at time.Time) {
	s.mu.Lock()
	s.history[providerID] = append(s.history[providerID], historyEntry{latency: latency, at: at})
	s.mu.Unlock()
}

func (s *MemoryStore) GetRequest(_ context.Context, requestID string) (model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return model.Request{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) SetRequestStatus(_ context.Context, requestID string, status model.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	s.requests[requestID] = r
	return nil
}

func (s *MemoryStore) BindProvider(_ context.Context, requestID, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return ErrNotFound
	}
	p, ok := s.providers[providerID]
	if !ok {
		return ErrNotFound
	}
	r.AssignedProviderID = providerID
	s.requests[requestID] = r
	p.ActiveJobs++
	s.providers[providerID] = p
	return nil
}

func (s *MemoryStore) GetProvider(_ context.Context, providerID string) (model.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[providerID]
	if !ok {
		return model.Provider{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) ListProviderPool(_ context.Context, _, _ string) ([]model.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool := make([]model.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		pool = append(pool, p)
	}
	return pool, nil
}

func (s *MemoryStore) HistoricalResponseTimes(_ context.Context, providerID string, window time.Duration) ([]time.Duration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := time.Now().Add(-window)
	var out []time.Duration
	for _, e := range s.history[providerID] {
		if e.at.After(cutoff) {
			out = append(out, e.latency)
		}
	}
	return out, nil
}
