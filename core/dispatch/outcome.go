package dispatch

// OutcomeKind discriminates the possible results of a dispatch run.
// "No providers" and "exhausted" are normal outcomes, not errors.
type OutcomeKind int

const (
	OutcomeAssigned OutcomeKind = iota
	OutcomeNoProviders
	OutcomeExhausted
	OutcomeCancelled
)

// String returns a human-readable representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAssigned:
		return "assigned"
	case OutcomeNoProviders:
		return "no_providers"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the result of one dispatch run.
type Outcome struct {
	Kind       OutcomeKind
	ProviderID string // set when Kind is OutcomeAssigned
	Attempts   int    // candidates actually notified
}

// Assigned reports whether a provider accepted the request.
func (o Outcome) Assigned() bool { return o.Kind == OutcomeAssigned }
