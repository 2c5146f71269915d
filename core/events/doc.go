// Package events defines the dispatch related events emitted on the event bus.
//
// Available event types:
//   - NotificationEvent: a candidate was notified
//   - ResponseEvent: a candidate reply was classified
//   - OutcomeEvent: a dispatch run completed
package events
