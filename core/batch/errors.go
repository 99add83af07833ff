package batch

import "errors"

var (
	// ErrBatchTooSmall is returned when executing a batch of fewer than two
	// orders.
	ErrBatchTooSmall = errors.New("batch: at least two orders required")
	// ErrBatchTooLarge is returned when a batch exceeds the configured cap.
	ErrBatchTooLarge = errors.New("batch: exceeds maximum batch size")
	// ErrCriticalOrder is returned when a batch contains an order above the
	// critical urgency ceiling.
	ErrCriticalOrder = errors.New("batch: contains critical-urgency order")
	// ErrTargetNotFound is returned when the target order is not in the pool.
	ErrTargetNotFound = errors.New("batch: target order not found")
)
