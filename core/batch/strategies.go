package batch

import (
	"strings"

	"github.com/parcelops/dispatchd/core/model"
)

// group is an intermediate candidate batch before the efficiency model and
// the minimum-savings bar are applied.
type group struct {
	typ       Type
	members   []model.Order // excludes the target
	reduction func(orderCount int) float64
}

// skuGroups builds exact and similar SKU groups. Exact matches carry the full
// per-item reduction; prefix matches a reduced-confidence multiplier.
func (o *Optimizer) skuGroups(target model.Order, pool []model.Order) []group {
	key := strings.ToUpper(target.ProductKey())
	if key == "" {
		return nil
	}
	var exact, similar []model.Order
	prefixLen := o.cfg.SKUPrefixLen
	for _, c := range pool {
		ck := strings.ToUpper(c.ProductKey())
		if ck == "" {
			continue
		}
		if ck == key {
			exact = append(exact, c)
			continue
		}
		if !o.cfg.SKUSimilarDisabled && len(ck) >= prefixLen && len(key) >= prefixLen && ck[:prefixLen] == key[:prefixLen] {
			similar = append(similar, c)
		}
	}
	var groups []group
	if len(exact) > 0 {
		groups = append(groups, group{
			typ:     TypeSKU,
			members: exact,
			reduction: func(n int) float64 {
				return o.cfg.SKUItemReduction * float64(n-1)
			},
		})
	}
	if len(similar) > 0 {
		groups = append(groups, group{
			typ:     TypeSKUSimilar,
			members: similar,
			reduction: func(n int) float64 {
				return o.cfg.SKUItemReduction * float64(n-1) * 0.7
			},
		})
	}
	return groups
}

// geoGroups builds same-county and adjacent-county groups. Adjacency comes
// from configuration, not a hardcoded map.
func (o *Optimizer) geoGroups(target model.Order, pool []model.Order) []group {
	county := target.County
	if county == "" {
		return nil
	}
	// Adjacency keys come from config and member counties from CSV data, so
	// casing can differ between the two.
	adjacent := make(map[string]struct{})
	for k, neighbours := range o.cfg.Adjacency {
		if !strings.EqualFold(k, county) {
			continue
		}
		for _, n := range neighbours {
			adjacent[strings.ToLower(n)] = struct{}{}
		}
	}
	var same, near []model.Order
	for _, c := range pool {
		switch {
		case c.County == "":
		case strings.EqualFold(c.County, county):
			same = append(same, c)
		default:
			if _, ok := adjacent[strings.ToLower(c.County)]; ok {
				near = append(near, c)
			}
		}
	}
	var groups []group
	if len(same) > 0 {
		groups = append(groups, group{
			typ:     TypeGeographic,
			members: same,
			reduction: func(n int) float64 {
				return float64(n) * o.cfg.BasePickingMinutes * o.cfg.CountyTravelBonus
			},
		})
	}
	if len(near) > 0 {
		// Adjacent counties may ride the same run; mix them with the
		// same-county orders when both exist.
		members := append(append([]model.Order(nil), same...), near...)
		groups = append(groups, group{
			typ:     TypeGeographicAdjacent,
			members: members,
			reduction: func(n int) float64 {
				return float64(n) * o.cfg.BasePickingMinutes * o.cfg.AdjacentTravelBonus
			},
		})
	}
	return groups
}

// urgencyGroups gathers orders inside the tolerance band around the target's
// urgency score, skipping anything above the risk threshold so a pressing
// deadline is never commingled into a slower batch flow.
func (o *Optimizer) urgencyGroups(target model.Order, pool []model.Order) []group {
	targetUrgency := o.urgencyScore(target)
	var members []model.Order
	for _, c := range pool {
		u := o.urgencyScore(c)
		if u > o.cfg.UrgencyRiskThreshold {
			continue
		}
		diff := u - targetUrgency
		if diff < 0 {
			diff = -diff
		}
		if diff <= o.cfg.UrgencyTolerance {
			members = append(members, c)
		}
	}
	if len(members) == 0 {
		return nil
	}
	return []group{{
		typ:     TypeUrgency,
		members: members,
		reduction: func(n int) float64 {
			return float64(n)*o.cfg.BasePickingMinutes*o.cfg.UrgencyFlowBonus + o.cfg.BatchSetupMinutes
		},
	}}
}

// valueGroups protects premium orders: a high-value target only groups with
// other high-value orders.
func (o *Optimizer) valueGroups(target model.Order, pool []model.Order) []group {
	if target.OrderTotal < o.cfg.HighValueThreshold {
		return nil
	}
	var members []model.Order
	for _, c := range pool {
		if c.OrderTotal >= o.cfg.HighValueThreshold {
			members = append(members, c)
		}
	}
	if len(members) == 0 {
		return nil
	}
	return []group{{
		typ:     TypeValue,
		members: members,
		reduction: func(n int) float64 {
			return float64(n)*o.cfg.BasePickingMinutes*o.cfg.ValueCareBonus + o.cfg.BatchSetupMinutes
		},
	}}
}

// hybridGroups intersects pairs of base groups. Only intersections keeping at
// least three orders (target included) survive; their reductions compound.
func (o *Optimizer) hybridGroups(base []group) []group {
	var out []group
	for i := 0; i < len(base); i++ {
		for j := i + 1; j < len(base); j++ {
			a, b := base[i], base[j]
			if a.typ == b.typ {
				continue
			}
			inter := intersect(a.members, b.members)
			if len(inter)+1 < 3 {
				continue
			}
			ra, rb := a.reduction, b.reduction
			out = append(out, group{
				typ:     TypeHybrid,
				members: inter,
				reduction: func(n int) float64 {
					return ra(n) + rb(n)
				},
			})
		}
	}
	return out
}

func intersect(a, b []model.Order) []model.Order {
	in := make(map[string]struct{}, len(b))
	for _, o := range b {
		in[o.OrderNumber] = struct{}{}
	}
	var out []model.Order
	for _, o := range a {
		if _, ok := in[o.OrderNumber]; ok {
			out = append(out, o)
		}
	}
	return out
}
