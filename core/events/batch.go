package events

// BatchDetectedEvent is published when the optimizer finds at least one batch
// recommendation for a target order.
type BatchDetectedEvent struct {
	TargetOrder     string
	Recommendations int
	BestType        string
	BestTimeSavings float64
}
