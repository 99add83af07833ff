// Package batch detects opportunities to pick and pack similar orders
// together. Four grouping strategies (SKU, geography, urgency, value) plus
// hybrid intersections feed a shared time-cost model; surviving batches are
// ranked by efficiency gain, savings and risk.
package batch

import (
	"fmt"
	"sort"
	"time"

	"github.com/parcelops/dispatchd/core/events"
	"github.com/parcelops/dispatchd/core/logger"
	"github.com/parcelops/dispatchd/core/metrics"
	"github.com/parcelops/dispatchd/core/model"
	"github.com/parcelops/dispatchd/core/scoring"
	"github.com/parcelops/dispatchd/internal/eventbus"
)

// Optimizer analyzes a candidate pool for batching opportunities around a
// target order. It holds no order state of its own; every call is a fresh
// computation over the supplied pool.
type Optimizer struct {
	cfg  Config
	log  logger.Logger
	sink metrics.MetricsSink
	bus  eventbus.EventBus
	now  func() time.Time
}

// NewOptimizer creates an optimizer. A nil sink defaults to a no-op sink and
// bus may be nil.
func NewOptimizer(cfg Config, log logger.Logger, sink metrics.MetricsSink, bus eventbus.EventBus) (*Optimizer, error) {
	if log == nil {
		return nil, fmt.Errorf("batch: nil logger provided to NewOptimizer")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Optimizer{cfg: cfg, log: log, sink: sink, bus: bus, now: time.Now}, nil
}

// SetClock overrides the time source. Intended for tests.
func (o *Optimizer) SetClock(now func() time.Time) { o.now = now }

// urgencyScore is the dispatch-urgency sub-score used for all batching
// decisions. The blended DPS would dilute deadline pressure with value and
// age, which is exactly what the ceiling must not do.
func (o *Optimizer) urgencyScore(ord model.Order) float64 {
	return scoring.DispatchUrgencyScore(ord.ExpectedDispatch, o.now())
}

// FindBatchOpportunities analyzes the pool and returns ranked batch
// recommendations for the target order. An empty result carries a reason
// string rather than an error: finding nothing is a normal outcome.
func (o *Optimizer) FindBatchOpportunities(target model.Order, pool []model.Order) Result {
	if target.ExpectedDispatch.IsZero() {
		o.log.Warnf("data quality: order %s has no parseable dispatch deadline; not batching", target.OrderNumber)
		return Result{Reason: "target order has no parseable dispatch deadline"}
	}
	if o.urgencyScore(target) > o.cfg.CriticalUrgencyCeiling {
		return Result{Reason: "target order is too close to its dispatch deadline to batch"}
	}

	eligible := o.eligible(target, pool)
	if len(eligible) == 0 {
		return Result{Reason: "no eligible candidate orders in the pool"}
	}

	base := o.skuGroups(target, eligible)
	base = append(base, o.geoGroups(target, eligible)...)
	base = append(base, o.urgencyGroups(target, eligible)...)
	base = append(base, o.valueGroups(target, eligible)...)
	all := append(base, o.hybridGroups(base)...)

	var recs []Recommendation
	for _, g := range all {
		if rec, ok := o.build(target, g); ok {
			recs = append(recs, rec)
		}
	}
	if len(recs) == 0 {
		return Result{Reason: "no grouping cleared the minimum savings bar"}
	}

	o.rank(recs)
	if len(recs) > o.cfg.MaxRecommendations {
		recs = recs[:o.cfg.MaxRecommendations]
	}

	now := o.now()
	for _, r := range recs {
		if err := recordBatch(o.sink, metrics.BatchRecommendationEvent{
			TargetOrder:    target.OrderNumber,
			Type:           r.Type.String(),
			Orders:         len(r.Orders),
			TimeSavings:    r.Efficiency.TimeSavings,
			EfficiencyGain: r.Efficiency.EfficiencyGainPercent,
			RiskScore:      r.Efficiency.RiskScore,
			Time:           now,
		}); err != nil {
			o.log.Errorf("metrics error: %v", err)
		}
	}
	if o.bus != nil {
		o.bus.Publish(events.BatchDetectedEvent{
			TargetOrder:     target.OrderNumber,
			Recommendations: len(recs),
			BestType:        recs[0].Type.String(),
			BestTimeSavings: recs[0].Efficiency.TimeSavings,
		})
	}
	o.log.Debugf("found %d batch opportunities for %s", len(recs), target.OrderNumber)
	return Result{Opportunities: recs}
}

// eligible applies the candidate filter: never the target itself, never a
// near-deadline order, never an order without product identity, and never an
// order whose delivery promise leaves less slack than the acceptable delay.
func (o *Optimizer) eligible(target model.Order, pool []model.Order) []model.Order {
	now := o.now()
	maxDelay := time.Duration(o.cfg.MaxDeliveryDelayHours * float64(time.Hour))
	var out []model.Order
	for _, c := range pool {
		if c.OrderNumber == target.OrderNumber {
			continue
		}
		if c.ProductKey() == "" {
			continue
		}
		if c.ExpectedDispatch.IsZero() {
			continue
		}
		if o.urgencyScore(c) > o.cfg.CriticalUrgencyCeiling {
			continue
		}
		if !c.DeliveryBy.IsZero() && c.DeliveryBy.Sub(now) < maxDelay {
			continue
		}
		out = append(out, c)
	}
	return out
}

// build turns a group into a recommendation, capping size with the target
// first and discarding batches below the minimum savings bar.
func (o *Optimizer) build(target model.Order, g group) (Recommendation, bool) {
	orders := append([]model.Order{target}, g.members...)
	if len(orders) > o.cfg.MaxBatchSize {
		orders = orders[:o.cfg.MaxBatchSize]
	}
	if len(orders) < 2 {
		return Recommendation{}, false
	}

	maxUrgency := 0.0
	for _, ord := range orders {
		if u := o.urgencyScore(ord); u > maxUrgency {
			maxUrgency = u
		}
	}

	eff := o.efficiency(orders, g.reduction(len(orders)), maxUrgency)
	minSavings := o.cfg.MinTimeSavings
	if g.typ == TypeHybrid {
		minSavings = o.cfg.MinHybridTimeSavings
	}
	if eff.TimeSavings < minSavings {
		return Recommendation{}, false
	}

	return Recommendation{
		Type:        g.typ,
		Orders:      orders,
		Efficiency:  eff,
		Feasibility: o.feasibility(orders, maxUrgency),
		Steps:       o.steps(g.typ, orders),
		Warnings:    o.warnings(orders, maxUrgency),
	}, true
}

// rank orders recommendations best first: efficiency gain (5-point ties
// equal), then time savings (1-minute ties equal), then lower risk.
func (o *Optimizer) rank(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].Efficiency, recs[j].Efficiency
		if diff := a.EfficiencyGainPercent - b.EfficiencyGainPercent; diff > 5 || diff < -5 {
			return diff > 0
		}
		if diff := a.TimeSavings - b.TimeSavings; diff > 1 || diff < -1 {
			return diff > 0
		}
		return a.RiskScore < b.RiskScore
	})
}

func recordBatch(sink metrics.MetricsSink, ev metrics.BatchRecommendationEvent) error {
	if r, ok := sink.(metrics.BatchRecorder); ok {
		return r.RecordBatchRecommendation(ev)
	}
	return nil
}
