// Package queue maintains the prioritized order queue: the working set, the
// dirty set of orders pending rescoring, a time-bucketed score cache and the
// last computed ranking.
package queue

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/parcelops/dispatchd/core/events"
	"github.com/parcelops/dispatchd/core/logger"
	"github.com/parcelops/dispatchd/core/metrics"
	"github.com/parcelops/dispatchd/core/model"
	"github.com/parcelops/dispatchd/core/scoring"
	"github.com/parcelops/dispatchd/internal/eventbus"
)

// RankedOrder is a queue entry annotated for presentation.
type RankedOrder struct {
	model.Order
	PriorityRank int    `json:"priority_rank"`
	Countdown    string `json:"countdown"`
	CountdownMs  int64  `json:"countdown_ms"`
}

// Manager owns the order working set and its ranking. All state is held by
// the instance; independent managers never share cache entries.
type Manager struct {
	scorer scoring.Scorer
	log    logger.Logger
	sink   metrics.MetricsSink
	bus    eventbus.EventBus

	orders     map[string]*model.Order
	dirty      map[string]struct{}
	cache      *scoreCache
	ranking    []model.Order
	hasRanking bool
	generation int

	computations int

	now func() time.Time

	mu          sync.Mutex
	recomputing atomic.Bool
	lastRanking atomic.Value // []model.Order
}

// NewManager creates a queue manager. A nil sink defaults to a no-op sink;
// bus may be nil when no subscribers exist.
func NewManager(scorer scoring.Scorer, log logger.Logger, sink metrics.MetricsSink, bus eventbus.EventBus) (*Manager, error) {
	if log == nil {
		return nil, fmt.Errorf("queue: nil logger provided to NewManager")
	}
	if err := scorer.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Manager{
		scorer: scorer,
		log:    log,
		sink:   sink,
		bus:    bus,
		orders: make(map[string]*model.Order),
		dirty:  make(map[string]struct{}),
		cache:  newScoreCache(5 * time.Minute),
		now:    time.Now,
	}, nil
}

// SetClock overrides the time source. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// LoadOrders replaces the working set and marks every order dirty. Records
// are normalized once here so downstream reads need no defensive checks.
func (m *Manager) LoadOrders(orders []model.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = make(map[string]*model.Order, len(orders))
	m.dirty = make(map[string]struct{}, len(orders))
	for i := range orders {
		o := orders[i]
		o.Normalize()
		if o.OrderNumber == "" {
			m.log.Warnf("skipping order with empty order number")
			continue
		}
		m.orders[o.OrderNumber] = &o
		m.dirty[o.OrderNumber] = struct{}{}
	}
	m.ranking = nil
	m.hasRanking = false
	ordersTracked.Set(float64(len(m.orders)))
	m.log.Infof("loaded %d orders", len(m.orders))
}

// MarkDirty flags an order for rescoring on the next Recompute. Callers use
// it after any mutation that changes scoring inputs.
func (m *Manager) MarkDirty(orderNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[orderNumber]; !ok {
		return fmt.Errorf("queue: order %s not found", orderNumber)
	}
	m.dirty[orderNumber] = struct{}{}
	m.cache.invalidate(orderNumber)
	return nil
}

// MarkAllDirty flags the whole working set for rescoring.
func (m *Manager) MarkAllDirty() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.orders {
		m.dirty[id] = struct{}{}
		m.cache.invalidate(id)
	}
}

// Update replaces an order's source fields and marks it dirty. Derived fields
// on the incoming record are ignored.
func (m *Manager) Update(o model.Order) error {
	o.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.orders[o.OrderNumber]
	if !ok {
		return fmt.Errorf("queue: order %s not found", o.OrderNumber)
	}
	o.DPSScore = cur.DPSScore
	o.IsOverdue = cur.IsOverdue
	o.Urgency = cur.Urgency
	o.LastDPSCalculation = cur.LastDPSCalculation
	*cur = o
	m.dirty[o.OrderNumber] = struct{}{}
	m.cache.invalidate(o.OrderNumber)
	return nil
}

// Get returns a copy of the order with the given number.
func (m *Manager) Get(orderNumber string) (model.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderNumber]
	if !ok {
		return model.Order{}, false
	}
	return *o, true
}

// Orders returns a snapshot of the working set in unspecified order. It is
// the candidate pool handed to the batch optimizer.
func (m *Manager) Orders() []model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out
}

// Recompute rescores dirty orders, clears the dirty set and rebuilds the
// ranking. It is idempotent: with no dirty orders the cached ranking is
// returned and no scoring work happens. Reentrant calls during an active
// recompute return the prior ranking unchanged.
func (m *Manager) Recompute() []model.Order {
	if !m.recomputing.CompareAndSwap(false, true) {
		if prev, ok := m.lastRanking.Load().([]model.Order); ok {
			return append([]model.Order(nil), prev...)
		}
		return nil
	}
	defer m.recomputing.Store(false)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasRanking && len(m.dirty) == 0 {
		return append([]model.Order(nil), m.ranking...)
	}

	start := time.Now()
	now := m.now()
	m.cache.sweep(now)

	rescored := 0
	var records []metrics.ScoreRecord
	for id := range m.dirty {
		o, ok := m.orders[id]
		if !ok {
			continue
		}
		score, hit := m.cache.get(id, now)
		if !hit {
			score = m.scorer.CalculateDPS(*o, now)
			m.computations++
			rescored++
			ordersRescored.Inc()
			if err := o.Validate(); err != nil {
				invalidOrders.Inc()
				m.log.Warnf("data quality: %v", err)
			}
			m.cache.put(id, now, score)
		}
		o.DPSScore = score
		o.IsOverdue = scoring.IsOverdue(*o, now)
		o.Urgency = model.UrgencyForScore(score)
		o.LastDPSCalculation = now
		records = append(records, metrics.ScoreRecord{
			OrderNumber: id,
			Score:       score,
			Urgency:     o.Urgency,
			Overdue:     o.IsOverdue,
			Generation:  m.generation + 1,
			Time:        now,
		})
	}
	m.dirty = make(map[string]struct{})

	m.ranking = m.sortedSet()
	m.hasRanking = true
	m.generation++
	m.lastRanking.Store(append([]model.Order(nil), m.ranking...))

	elapsed := time.Since(start)
	recomputeDuration.Observe(elapsed.Seconds())
	if len(records) > 0 {
		if err := m.sink.RecordScores(records); err != nil {
			m.log.Errorf("metrics error: %v", err)
		}
	}
	if m.bus != nil {
		m.bus.Publish(events.QueueRecomputedEvent{
			Generation: m.generation,
			Orders:     len(m.ranking),
			Rescored:   rescored,
			Elapsed:    elapsed,
		})
	}
	m.log.Debugf("recompute generation %d: %d orders, %d rescored in %s", m.generation, len(m.ranking), rescored, elapsed)
	return append([]model.Order(nil), m.ranking...)
}

// sortedSet builds the ranking: DPS descending with deterministic tie-breaks
// (overdue first, higher total, older order date, then order number).
func (m *Manager) sortedSet() []model.Order {
	out := make([]model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DPSScore != b.DPSScore {
			return a.DPSScore > b.DPSScore
		}
		if a.IsOverdue != b.IsOverdue {
			return a.IsOverdue
		}
		if a.OrderTotal != b.OrderTotal {
			return a.OrderTotal > b.OrderTotal
		}
		if !a.OrderDate.Equal(b.OrderDate) {
			return a.OrderDate.Before(b.OrderDate)
		}
		return a.OrderNumber < b.OrderNumber
	})
	return out
}

// TopN returns the first n ranking entries annotated with rank and countdown.
// Calling before any Recompute returns an empty slice and logs a warning.
func (m *Manager) TopN(n int) []RankedOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasRanking {
		m.log.Warnf("TopN called before Recompute; returning empty ranking")
		return nil
	}
	if n > len(m.ranking) {
		n = len(m.ranking)
	}
	if n <= 0 {
		return nil
	}
	now := m.now()
	out := make([]RankedOrder, 0, n)
	for i := 0; i < n; i++ {
		o := m.ranking[i]
		until := o.ExpectedDispatch.Sub(now)
		out = append(out, RankedOrder{
			Order:        o,
			PriorityRank: i + 1,
			Countdown:    formatCountdown(until, o.ExpectedDispatch.IsZero()),
			CountdownMs:  until.Milliseconds(),
		})
	}
	return out
}

// Generation returns the current ranking generation, zero before the first
// Recompute.
func (m *Manager) Generation() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// ScoreComputations returns the number of DPS computations performed since
// creation. Exposed so tests can assert Recompute idempotency.
func (m *Manager) ScoreComputations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computations
}

// CacheStats returns score cache hit and miss counts.
func (m *Manager) CacheStats() (hits, misses int) {
	return m.cache.stats()
}

// formatCountdown renders the time remaining to dispatch for operators.
func formatCountdown(until time.Duration, noDeadline bool) string {
	if noDeadline {
		return "no deadline"
	}
	overdue := until < 0
	if overdue {
		until = -until
	}
	h := int(until.Hours())
	mins := int(until.Minutes()) % 60
	s := fmt.Sprintf("%dh %02dm", h, mins)
	if overdue {
		return "overdue " + s
	}
	return s
}
