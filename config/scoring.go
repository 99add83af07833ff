package config

import (
	"github.com/parcelops/dispatchd/core/scoring"
)

// ScoringConfig exposes the DPS component weights. Zero values fall back to
// the production defaults; explicit weights must form a convex combination.
type ScoringConfig struct {
	DispatchWeight float64 `json:"dispatch_weight"`
	DeliveryWeight float64 `json:"delivery_weight"`
	AgeWeight      float64 `json:"age_weight"`
	ValueWeight    float64 `json:"value_weight"`
}

// SetDefaults applies the default weights when none are configured.
func (c *ScoringConfig) SetDefaults() {
	if c.DispatchWeight == 0 && c.DeliveryWeight == 0 && c.AgeWeight == 0 && c.ValueWeight == 0 {
		def := scoring.NewScorer()
		c.DispatchWeight = def.DispatchWeight
		c.DeliveryWeight = def.DeliveryWeight
		c.AgeWeight = def.AgeWeight
		c.ValueWeight = def.ValueWeight
	}
}

// Validate checks the weights.
func (c ScoringConfig) Validate() error {
	return c.Scorer().Validate()
}

// Scorer builds the scoring.Scorer from the configured weights.
func (c ScoringConfig) Scorer() scoring.Scorer {
	return scoring.Scorer{
		DispatchWeight: c.DispatchWeight,
		DeliveryWeight: c.DeliveryWeight,
		AgeWeight:      c.AgeWeight,
		ValueWeight:    c.ValueWeight,
	}
}
