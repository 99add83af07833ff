// Package scoring computes the Dispatch Priority Score (DPS) for warehouse
// orders. The score blends dispatch urgency, delivery pressure, order age and
// order value into a single 0-100 figure the queue sorts on.
package scoring

import (
	"math"
	"time"

	"github.com/parcelops/dispatchd/core/model"
)

// Scorer computes DPS scores from a set of tunable component weights. The
// weights should sum to 1; Validate enforces this within a small tolerance.
type Scorer struct {
	DispatchWeight float64
	DeliveryWeight float64
	AgeWeight      float64
	ValueWeight    float64
}

// NewScorer returns a scorer with the production default weights: dispatch
// urgency dominates, delivery pressure is secondary, age and value are
// tie-shifters.
func NewScorer() Scorer {
	return Scorer{
		DispatchWeight: 0.60,
		DeliveryWeight: 0.20,
		AgeWeight:      0.10,
		ValueWeight:    0.10,
	}
}

// Validate checks the weights form a convex combination.
func (s Scorer) Validate() error {
	sum := s.DispatchWeight + s.DeliveryWeight + s.AgeWeight + s.ValueWeight
	if math.Abs(sum-1.0) > 0.001 {
		return errWeightSum(sum)
	}
	return nil
}

// CalculateDPS returns the order's priority score in [0,100], deterministic
// for a given (order, now) pair. Orders missing a required field or carrying
// an unparseable date score zero; the caller logs such records as a
// data-quality signal and processing continues.
func (s Scorer) CalculateDPS(order model.Order, now time.Time) float64 {
	if order.Validate() != nil {
		return 0
	}
	score := s.DispatchWeight*DispatchUrgencyScore(order.ExpectedDispatch, now) +
		s.DeliveryWeight*DeliveryPressureScore(order.OrderDate, order.DeliveryBy) +
		s.AgeWeight*AgeScore(order.OrderDate, now) +
		s.ValueWeight*ValueScore(order.OrderTotal)
	score = math.Round(score*100) / 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// DispatchUrgencyScore rates proximity to the dispatch deadline. Overdue
// orders peg at 100; beyond two days the score decays towards zero.
func DispatchUrgencyScore(expectedDispatch, now time.Time) float64 {
	h := expectedDispatch.Sub(now).Hours()
	switch {
	case h <= 0:
		return 100
	case h <= 2:
		return 100
	case h <= 4:
		return 90
	case h <= 8:
		return 80
	case h <= 12:
		return 70
	case h <= 24:
		return 50
	case h <= 48:
		return 25
	default:
		return math.Max(0, 25-(h-48)/10)
	}
}

// DeliveryPressureScore rates how tight the promised delivery window is,
// measured from order placement. A missing promise scores a neutral 50.
func DeliveryPressureScore(orderDate, deliveryBy time.Time) float64 {
	if deliveryBy.IsZero() {
		return 50
	}
	h := deliveryBy.Sub(orderDate).Hours()
	switch {
	case h <= 24:
		return 100
	case h <= 48:
		return 80
	case h <= 72:
		return 60
	case h <= 120:
		return 40
	case h <= 168:
		return 20
	default:
		return 10
	}
}

// AgeScore rises as an order sits unactioned, so old orders cannot starve.
func AgeScore(orderDate, now time.Time) float64 {
	h := now.Sub(orderDate).Hours()
	switch {
	case h <= 2:
		return 10
	case h <= 6:
		return 20
	case h <= 12:
		return 30
	case h <= 24:
		return 50
	case h <= 48:
		return 70
	case h <= 72:
		return 85
	default:
		return 100
	}
}

// ValueScore rates the order total in GBP on a stepped, monotonically
// non-decreasing scale. Non-positive totals (including negatives from bad
// input) score zero.
func ValueScore(total float64) float64 {
	switch {
	case total <= 0:
		return 0
	case total <= 25:
		return 10
	case total <= 50:
		return 20
	case total <= 100:
		return 30
	case total <= 250:
		return 50
	case total <= 500:
		return 70
	case total <= 1000:
		return 85
	default:
		return 100
	}
}

// IsOverdue reports whether the dispatch deadline has passed. Orders without
// a parseable deadline are never overdue; they already score zero.
func IsOverdue(order model.Order, now time.Time) bool {
	if order.ExpectedDispatch.IsZero() {
		return false
	}
	return !order.ExpectedDispatch.After(now)
}
