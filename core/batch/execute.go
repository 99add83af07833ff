package batch

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parcelops/dispatchd/core/model"
)

// ExecuteBatch validates the batch and returns a tracked execution record
// with per-order sub-status initialized to pending. It does not mutate order
// dispatch status; the pack tracker does that per order as work proceeds.
func (o *Optimizer) ExecuteBatch(orders []model.Order) (Execution, error) {
	if len(orders) < 2 {
		return Execution{}, fmt.Errorf("%w: got %d", ErrBatchTooSmall, len(orders))
	}
	if len(orders) > o.cfg.MaxBatchSize {
		return Execution{}, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(orders), o.cfg.MaxBatchSize)
	}
	for _, ord := range orders {
		if o.urgencyScore(ord) > o.cfg.CriticalUrgencyCeiling {
			return Execution{}, fmt.Errorf("%w: %s", ErrCriticalOrder, ord.OrderNumber)
		}
	}

	now := o.now()
	numbers := make([]string, len(orders))
	status := make(map[string]string, len(orders))
	for i, ord := range orders {
		numbers[i] = ord.OrderNumber
		status[ord.OrderNumber] = "pending"
	}
	estimated := o.cfg.BatchSetupMinutes + float64(len(orders))*o.cfg.BasePickingMinutes

	exec := Execution{
		ID:                  uuid.NewString(),
		TargetOrder:         orders[0].OrderNumber,
		OrderNumbers:        numbers,
		Status:              ExecutionProcessing,
		OrderStatus:         status,
		StartedAt:           now,
		EstimatedCompletion: now.Add(time.Duration(estimated * float64(time.Minute))),
	}
	o.log.Infof("executing batch %s with %d orders", exec.ID, len(orders))
	return exec, nil
}
