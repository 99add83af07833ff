// Package pack tracks orders through the pack-and-dispatch workflow. Unlike
// scoring and batching, which degrade gracefully over untrusted bulk data,
// the tracker guards stateful history and fails loudly on misuse.
package pack

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parcelops/dispatchd/core/events"
	"github.com/parcelops/dispatchd/core/logger"
	"github.com/parcelops/dispatchd/core/metrics"
	"github.com/parcelops/dispatchd/core/model"
	"github.com/parcelops/dispatchd/internal/eventbus"
)

// OrderLookup resolves order numbers against the working set. Implemented by
// the queue manager.
type OrderLookup interface {
	Get(orderNumber string) (model.Order, bool)
}

// Tracker owns active pack sessions, completed history and worker stats.
type Tracker struct {
	orders OrderLookup
	log    logger.Logger
	sink   metrics.MetricsSink
	bus    eventbus.EventBus
	now    func() time.Time

	mu      sync.Mutex
	active  map[string]*model.PackSession
	history []model.PackSession
	workers map[string]*WorkerStats
}

// NewTracker creates a pack session tracker bound to an order lookup.
func NewTracker(orders OrderLookup, log logger.Logger, sink metrics.MetricsSink, bus eventbus.EventBus) (*Tracker, error) {
	if orders == nil || log == nil {
		return nil, fmt.Errorf("pack: nil parameter provided to NewTracker")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Tracker{
		orders:  orders,
		log:     log,
		sink:    sink,
		bus:     bus,
		now:     time.Now,
		active:  make(map[string]*model.PackSession),
		workers: make(map[string]*WorkerStats),
	}, nil
}

// SetClock overrides the time source. Intended for tests.
func (t *Tracker) SetClock(now func() time.Time) { t.now = now }

// Start opens a session for the order in PICKING. It fails if the order is
// unknown or already has an active session.
func (t *Tracker) Start(orderNumber, workerName string) (model.PackSession, error) {
	order, ok := t.orders.Get(orderNumber)
	if !ok {
		return model.PackSession{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.active[orderNumber]; exists {
		return model.PackSession{}, fmt.Errorf("%w: %s", ErrSessionExists, orderNumber)
	}
	s := &model.PackSession{
		ID:                uuid.NewString(),
		OrderNumber:       orderNumber,
		Status:            model.PackPicking,
		WorkerName:        workerName,
		Priority:          model.PriorityForDispatch(order.ExpectedDispatch, now),
		Timestamps:        map[model.PackStatus]time.Time{model.PackPicking: now},
		EstimatedDuration: estimateDuration(order),
	}
	t.active[orderNumber] = s
	activeSessions.Set(float64(len(t.active)))

	if t.bus != nil {
		t.bus.Publish(events.PackStartedEvent{
			OrderNumber: orderNumber,
			Worker:      workerName,
			Priority:    s.Priority,
			Estimated:   s.EstimatedDuration,
		})
	}
	t.log.Infof("pack started for %s by %s (priority %s)", orderNumber, workerName, s.Priority)
	return *s, nil
}

// UpdateStatus moves the session to a new status after validating the
// transition. Reaching PACKED computes the actual duration and updates the
// worker accumulator; reaching DISPATCHED moves the session to history.
func (t *Tracker) UpdateStatus(orderNumber string, status model.PackStatus, note string) (model.PackSession, error) {
	if !status.IsValid() {
		return model.PackSession{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.active[orderNumber]
	if !ok {
		return model.PackSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, orderNumber)
	}
	if !s.Status.CanTransition(status) {
		return model.PackSession{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, status)
	}

	from := s.Status
	s.Status = status
	s.Timestamps[status] = now
	if note = strings.TrimSpace(note); note != "" {
		s.Notes = append(s.Notes, model.SessionNote{At: now, Author: s.WorkerName, Text: note})
	}

	if t.bus != nil {
		t.bus.Publish(events.PackStatusEvent{OrderNumber: orderNumber, From: from, To: status, At: now})
	}

	switch status {
	case model.PackPacked:
		t.onPacked(s, now)
	case model.PackDispatched:
		t.onDispatched(s)
	}
	return *s, nil
}

// onPacked computes the actual picking-to-packed duration and feeds the
// worker efficiency accumulator. Called with the lock held.
func (t *Tracker) onPacked(s *model.PackSession, now time.Time) {
	picking, ok := s.Timestamps[model.PackPicking]
	if !ok {
		t.log.Warnf("session %s packed without a picking timestamp", s.OrderNumber)
		return
	}
	s.ActualDuration = s.Timestamps[model.PackPacked].Sub(picking)
	packDuration.Observe(s.ActualDuration.Minutes())

	w := t.workers[s.WorkerName]
	if w == nil {
		w = &WorkerStats{Worker: s.WorkerName}
		t.workers[s.WorkerName] = w
	}
	w.record(s.ActualDuration)

	if r, ok := t.sink.(metrics.PackDurationRecorder); ok {
		if err := r.RecordPackDuration(metrics.PackDurationEvent{
			OrderNumber: s.OrderNumber,
			Worker:      s.WorkerName,
			Estimated:   s.EstimatedDuration,
			Actual:      s.ActualDuration,
			Time:        now,
		}); err != nil {
			t.log.Errorf("metrics error: %v", err)
		}
	}
	if t.bus != nil {
		t.bus.Publish(events.MetricsEvent{Worker: s.WorkerName, Count: w.Count, Average: w.Average})
	}
}

// onDispatched moves the session out of the active map into history. Called
// with the lock held.
func (t *Tracker) onDispatched(s *model.PackSession) {
	delete(t.active, s.OrderNumber)
	t.history = append(t.history, *s)
	activeSessions.Set(float64(len(t.active)))
	packCompleted.Inc()
	if t.bus != nil {
		t.bus.Publish(events.PackCompletedEvent{
			OrderNumber: s.OrderNumber,
			Worker:      s.WorkerName,
			Actual:      s.ActualDuration,
		})
	}
	t.log.Infof("pack completed for %s", s.OrderNumber)
}

// Session returns a copy of the active session for the order.
func (t *Tracker) Session(orderNumber string) (model.PackSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.active[orderNumber]
	if !ok {
		return model.PackSession{}, false
	}
	return *s, true
}

// InWorkflow reports whether the order has an active session. Orders in
// workflow stay visible for tracking but are excluded from fresh batch and
// priority candidate pools.
func (t *Tracker) InWorkflow(orderNumber string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.active[orderNumber]
	return ok
}

// ActiveSessions returns copies of all active sessions.
func (t *Tracker) ActiveSessions() []model.PackSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.PackSession, 0, len(t.active))
	for _, s := range t.active {
		out = append(out, *s)
	}
	return out
}

// WorkerMetrics returns a copy of every worker's accumulator.
func (t *Tracker) WorkerMetrics() []WorkerStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]WorkerStats, 0, len(t.workers))
	for _, w := range t.workers {
		out = append(out, *w)
	}
	return out
}

// estimateDuration derives an expected pack time from category and quantity
// heuristics observed on the floor.
func estimateDuration(order model.Order) time.Duration {
	base := 8 * time.Minute
	switch strings.ToLower(order.Category) {
	case "fragile", "glassware", "ceramics":
		base = 15 * time.Minute
	case "oversized", "furniture":
		base = 20 * time.Minute
	case "documents", "media":
		base = 5 * time.Minute
	}
	qty := order.Quantity
	if qty > 1 {
		base += time.Duration(qty-1) * time.Minute
	}
	return base
}
