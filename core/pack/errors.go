package pack

import "errors"

var (
	// ErrSessionExists is returned when starting a session for an order that
	// already has one active.
	ErrSessionExists = errors.New("pack: session already exists for order")
	// ErrSessionNotFound is returned when updating an order with no active
	// session.
	ErrSessionNotFound = errors.New("pack: no active session for order")
	// ErrOrderNotFound is returned when the order is unknown to the queue.
	ErrOrderNotFound = errors.New("pack: order not found")
	// ErrInvalidTransition is returned for a status move outside the allowed
	// table. It is never silently coerced.
	ErrInvalidTransition = errors.New("pack: invalid status transition")
	// ErrUnknownStatus is returned for a status outside the workflow states.
	ErrUnknownStatus = errors.New("pack: unknown status")
)
