package batch

import (
	"fmt"
	"math"

	"github.com/parcelops/dispatchd/core/model"
)

// efficiency applies the shared time-cost model. reduction is the
// factor-specific savings in minutes; the batch floor prevents a compounded
// reduction from claiming impossible gains.
func (o *Optimizer) efficiency(orders []model.Order, reduction float64, maxUrgency float64) Efficiency {
	cfg := o.cfg
	baseTime := float64(len(orders)) * cfg.BasePickingMinutes
	batchTime := math.Max(baseTime*cfg.FloorFraction, cfg.BatchSetupMinutes+baseTime-reduction)
	savings := baseTime - batchTime
	if savings < 0 {
		savings = 0
	}
	gain := 0.0
	if baseTime > 0 {
		gain = savings / baseTime * 100
	}
	return Efficiency{
		BaseTime:              round2(baseTime),
		BatchTime:             round2(batchTime),
		TimeSavings:           round2(savings),
		EfficiencyGainPercent: round2(gain),
		CostSavings:           round2(savings * cfg.CostPerMinute),
		RiskScore:             o.riskScore(orders, maxUrgency),
	}
}

// riskScore rates a batch for display and ranking only; it never excludes a
// batch by itself.
func (o *Optimizer) riskScore(orders []model.Order, maxUrgency float64) float64 {
	risk := maxUrgency / 100
	if len(orders) > 5 {
		risk += 0.10
	}
	for _, ord := range orders {
		if ord.OrderTotal >= o.cfg.VeryHighValueThreshold {
			risk += 0.15
			break
		}
	}
	return round2(math.Min(1.0, risk))
}

// feasibility starts at 100 and deducts for traits that make a batch awkward
// on the floor: pressing deadlines, size, geographic spread.
func (o *Optimizer) feasibility(orders []model.Order, maxUrgency float64) Feasibility {
	score := 100.0
	if maxUrgency > 70 {
		score -= 20
	}
	if len(orders) > 5 {
		score -= 15
	}
	if distinctCounties(orders) > 3 {
		score -= 20
	}
	var total float64
	for _, ord := range orders {
		total += ord.OrderTotal
	}
	if total >= 2*o.cfg.VeryHighValueThreshold {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	rating := "poor"
	switch {
	case score >= 90:
		rating = "excellent"
	case score >= 75:
		rating = "good"
	case score >= 55:
		rating = "fair"
	}
	return Feasibility{Score: score, Rating: rating}
}

// steps builds the suggested execution sequence for a recommendation.
func (o *Optimizer) steps(t Type, orders []model.Order) []string {
	n := len(orders)
	steps := []string{
		fmt.Sprintf("Stage a picking trolley for %d orders", n),
	}
	switch t {
	case TypeSKU, TypeSKUSimilar:
		steps = append(steps, fmt.Sprintf("Pick shared product %s in a single pass", orders[0].ProductKey()))
	case TypeGeographic, TypeGeographicAdjacent:
		steps = append(steps, fmt.Sprintf("Group parcels for the %s delivery run", orders[0].County))
	case TypeUrgency:
		steps = append(steps, "Pick in queue order; all deadlines sit in the same band")
	case TypeValue:
		steps = append(steps, "Use the premium packing bench and double-check contents")
	case TypeHybrid:
		steps = append(steps, "Pick shared products first, then group by destination")
	}
	steps = append(steps,
		"Pack each order and confirm against its dispatch note",
		"Move completed parcels to the dispatch bay together",
	)
	return steps
}

// warnings lists human-readable caveats for a recommendation.
func (o *Optimizer) warnings(orders []model.Order, maxUrgency float64) []string {
	var out []string
	if maxUrgency > o.cfg.UrgencyRiskThreshold {
		out = append(out, "batch contains orders with pressing dispatch deadlines")
	}
	var total float64
	for _, ord := range orders {
		total += ord.OrderTotal
	}
	if total >= 2*o.cfg.VeryHighValueThreshold {
		out = append(out, fmt.Sprintf("high aggregate value (£%.2f); handle with care", total))
	}
	if len(orders) > 5 || distinctCounties(orders) > 2 {
		out = append(out, "large or geographically spread batch; expect extra coordination")
	}
	return out
}

func distinctCounties(orders []model.Order) int {
	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		if o.County != "" {
			seen[o.County] = struct{}{}
		}
	}
	return len(seen)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
