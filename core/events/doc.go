// Package events defines the lifecycle events emitted on the event bus.
//
// Available event types:
//   - QueueRecomputedEvent: a ranking generation finished
//   - BatchDetectedEvent: batch recommendations produced for a target order
//   - PackStartedEvent: a pack session was opened
//   - PackStatusEvent: a pack session changed state
//   - PackCompletedEvent: a pack session reached DISPATCHED
//   - MetricsEvent: worker efficiency metrics were updated
package events
