package events

import (
	"time"

	"github.com/parcelops/dispatchd/core/model"
)

// PackStartedEvent is published when a pack session is opened for an order.
type PackStartedEvent struct {
	OrderNumber string
	Worker      string
	Priority    model.SessionPriority
	Estimated   time.Duration
}

// PackStatusEvent is published on every accepted status transition.
type PackStatusEvent struct {
	OrderNumber string
	From        model.PackStatus
	To          model.PackStatus
	At          time.Time
}

// PackCompletedEvent is published when a session reaches DISPATCHED and moves
// to history.
type PackCompletedEvent struct {
	OrderNumber string
	Worker      string
	Actual      time.Duration
}

// MetricsEvent is published when a worker's efficiency accumulator changes.
type MetricsEvent struct {
	Worker  string
	Count   int
	Average time.Duration
}
