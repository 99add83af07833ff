package model

import "time"

// PackStatus represents the workflow state of a pack session.
type PackStatus string

const (
	PackPending    PackStatus = "PENDING"
	PackPicking    PackStatus = "PICKING"
	PackPacking    PackStatus = "PACKING"
	PackPacked     PackStatus = "PACKED"
	PackDispatched PackStatus = "DISPATCHED"
)

func (s PackStatus) String() string { return string(s) }

// IsValid reports whether the status is one of the known workflow states.
func (s PackStatus) IsValid() bool {
	switch s {
	case PackPending, PackPicking, PackPacking, PackPacked, PackDispatched:
		return true
	}
	return false
}

// packTransitions encodes the allowed workflow moves. PICKING and PACKING may
// revert one step; DISPATCHED is terminal.
var packTransitions = map[PackStatus][]PackStatus{
	PackPending:    {PackPicking},
	PackPicking:    {PackPacking, PackPending},
	PackPacking:    {PackPacked, PackPicking},
	PackPacked:     {PackDispatched},
	PackDispatched: {},
}

// CanTransition reports whether moving from s to next is allowed.
func (s PackStatus) CanTransition(next PackStatus) bool {
	for _, allowed := range packTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SessionPriority classifies how soon the order behind a session must leave
// the warehouse.
type SessionPriority string

const (
	SessionCritical SessionPriority = "critical"
	SessionHigh     SessionPriority = "high"
	SessionMedium   SessionPriority = "medium"
	SessionLow      SessionPriority = "low"
)

// PriorityForDispatch derives a session priority from the days remaining
// until the order's dispatch deadline.
func PriorityForDispatch(expectedDispatch, now time.Time) SessionPriority {
	days := int(expectedDispatch.Sub(now).Hours() / 24)
	switch {
	case days <= 0:
		return SessionCritical
	case days == 1:
		return SessionHigh
	case days <= 3:
		return SessionMedium
	default:
		return SessionLow
	}
}

// SessionNote is one free-text entry in a session's log.
type SessionNote struct {
	At     time.Time `json:"at"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
}

// PackSession tracks one order through the pack workflow. One active session
// exists per order at most; completed sessions move to history.
type PackSession struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"order_number"`
	Status      PackStatus      `json:"status"`
	WorkerName  string          `json:"worker_name"`
	Priority    SessionPriority `json:"priority"`

	// Timestamps records when each status was entered, keyed by status name.
	Timestamps map[PackStatus]time.Time `json:"timestamps"`

	EstimatedDuration time.Duration `json:"estimated_duration"`
	ActualDuration    time.Duration `json:"actual_duration,omitempty"`

	Notes []SessionNote `json:"notes,omitempty"`
}
