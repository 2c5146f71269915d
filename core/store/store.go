package store

import (
	"context"
	"errors"
	"time"

	"github.com/ngantchou/warap-ai-sub004/core/model"
)

// ErrNotFound is returned when a request or provider does not exist.
var ErrNotFound = errors.New("store: not found")

// RequestStore persists request status transitions. Writes are committed
// immediately at each transition so concurrent readers always observe a
// monotonically advancing state.
type RequestStore interface {
	GetRequest(ctx context.Context, requestID string) (model.Request, error)
	SetRequestStatus(ctx context.Context, requestID string, status model.RequestStatus) error
	// BindProvider assigns the provider to the request.
	BindProvider(ctx context.Context, requestID, providerID string) error
}

// ProviderStore reads provider snapshots and their history.
type ProviderStore interface {
	GetProvider(ctx context.Context, providerID string) (model.Provider, error)
	// ListProviderPool returns the candidate pool for a service type and
	// location. The store may pre-filter coarsely; the matcher applies
	// the authoritative eligibility rules.
	ListProviderPool(ctx context.Context, serviceType, location string) ([]model.Provider, error)
	// HistoricalResponseTimes returns past acceptance latencies within
	// the trailing window.
	HistoricalResponseTimes(ctx context.Context, providerID string, window time.Duration) ([]time.Duration, error)
}
