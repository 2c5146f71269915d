package model

import "time"

// RequestStatus tracks the lifecycle of a service request.
type RequestStatus int

const (
	StatusPending RequestStatus = iota
	StatusSearching
	StatusAssigned
	StatusSearchFailed
	StatusCancelled
)

// Request is the snapshot of a service request the core needs for one
// dispatch run. The durable record lives in the external store; the core
// only reads these fields and writes status transitions back.
type Request struct {
	ID                 string
	ServiceType        string // e.g. "plomberie", "électricité"
	Location           string // free text as captured from the requester
	Description        string
	Urgency            string // e.g. "urgent", "cette semaine"
	RequesterAddress   string // messaging address of the requester
	Status             RequestStatus
	// AssignedProviderID is set once a provider accepts the request.
	AssignedProviderID string
	CreatedAt          time.Time
}

// String returns a human-readable representation of the request status.
func (s RequestStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSearching:
		return "searching"
	case StatusAssigned:
		return "assigned"
	case StatusSearchFailed:
		return "search_failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
