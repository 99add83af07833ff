package events

import "time"

// QueueRecomputedEvent is published when the queue manager finishes a ranking
// generation.
type QueueRecomputedEvent struct {
	Generation int
	Orders     int
	Rescored   int
	Elapsed    time.Duration
}
