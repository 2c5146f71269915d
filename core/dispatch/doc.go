// Package dispatch drives the notify/respond/fallback protocol that
// connects a matched service request to a provider.
//
// It consumes the ranked candidate list produced by the matching package
// and notifies candidates one at a time over the messaging gateway,
// waiting for an affirmative or negative reply within a response window
// and falling back to the next candidate on rejection, timeout or
// delivery failure. Matching runs once per request; fallback reuses the
// pre-computed ranking.
//
// Key components:
//   - DispatchManager: orchestrates the dispatch run for one request.
//   - DispatchRecord: per-notification state machine
//     (PENDING -> SENT -> ACCEPTED | REJECTED | TIMEOUT | FAILED).
//   - Registry: in-flight notifications, keyed by request id with a
//     provider-address index for inbound routing.
//   - Classifier: token-based reply classification; ambiguous replies
//     trigger a clarification prompt without consuming the attempt.
//
// Concurrency: each request dispatches independently. Within a request,
// candidates are strictly sequential and at most one record is SENT at a
// time. Terminal transitions are compare-and-set under a per-entry lock
// so the first writer wins; a late acceptance arriving after a timeout
// has advanced the run is ignored and logged.
package dispatch
