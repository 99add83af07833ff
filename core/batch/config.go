package batch

import "fmt"

// Config defines batch optimizer tuning. All thresholds are configuration so
// operations can retune them without a code change.
type Config struct {
	// CriticalUrgencyCeiling excludes near-deadline orders from batching.
	// Orders whose dispatch urgency sub-score exceeds this never join a
	// batch; delaying them risks missing the deadline.
	CriticalUrgencyCeiling float64 `json:"critical_urgency_ceiling"`
	// MaxDeliveryDelayHours is the minimum slack an order must retain on its
	// delivery promise to be batched.
	MaxDeliveryDelayHours float64 `json:"max_delivery_delay_hours"`
	// UrgencyTolerance is the band around the target's urgency score for the
	// urgency-compatible strategy.
	UrgencyTolerance float64 `json:"urgency_tolerance"`
	// UrgencyRiskThreshold excludes risky deadlines from urgency batches.
	UrgencyRiskThreshold float64 `json:"urgency_risk_threshold"`

	// HighValueThreshold marks an order as premium (GBP).
	HighValueThreshold float64 `json:"high_value_threshold"`
	// VeryHighValueThreshold triggers the value risk penalty (GBP).
	VeryHighValueThreshold float64 `json:"very_high_value_threshold"`

	// Time model, minutes.
	BasePickingMinutes  float64 `json:"base_picking_minutes"`
	BatchSetupMinutes   float64 `json:"batch_setup_minutes"`
	SKUItemReduction    float64 `json:"sku_item_reduction"`
	CountyTravelBonus   float64 `json:"county_travel_bonus"`
	AdjacentTravelBonus float64 `json:"adjacent_travel_bonus"`
	UrgencyFlowBonus    float64 `json:"urgency_flow_bonus"`
	ValueCareBonus      float64 `json:"value_care_bonus"`
	FloorFraction       float64 `json:"floor_fraction"`
	CostPerMinute       float64 `json:"cost_per_minute"`

	// MinTimeSavings discards batches with negligible gain; hybrids must
	// clear the stricter hybrid bar.
	MinTimeSavings       float64 `json:"min_time_savings"`
	MinHybridTimeSavings float64 `json:"min_hybrid_time_savings"`

	MaxBatchSize       int `json:"max_batch_size"`
	MaxRecommendations int `json:"max_recommendations"`

	// SKUPrefixLen drives the similar-SKU prefix heuristic. The heuristic is
	// a placeholder policy pending product clarification; it can be switched
	// off entirely with SKUSimilarDisabled. The flag is phrased negatively so
	// the zero value of Config keeps the matching on.
	SKUPrefixLen       int  `json:"sku_prefix_len"`
	SKUSimilarDisabled bool `json:"sku_similar_disabled"`

	// Adjacency maps a county to its neighbours for the geographic strategy.
	// Shipped as sample data; override per deployment.
	Adjacency map[string][]string `json:"adjacency"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CriticalUrgencyCeiling: 85,
		MaxDeliveryDelayHours:  2,
		UrgencyTolerance:       15,
		UrgencyRiskThreshold:   60,
		HighValueThreshold:     500,
		VeryHighValueThreshold: 1000,
		BasePickingMinutes:     3.5,
		BatchSetupMinutes:      1.2,
		SKUItemReduction:       1.2,
		CountyTravelBonus:      0.20,
		AdjacentTravelBonus:    0.12,
		UrgencyFlowBonus:       0.10,
		ValueCareBonus:         0.08,
		FloorFraction:          0.35,
		CostPerMinute:          0.50,
		MinTimeSavings:         1.5,
		MinHybridTimeSavings:   2.5,
		MaxBatchSize:           8,
		MaxRecommendations:     10,
		SKUPrefixLen:           4,
		Adjacency:              DefaultAdjacency(),
	}
}

// DefaultAdjacency returns the sample UK county adjacency table. It covers
// the regions seen in historical order data, not the whole country.
func DefaultAdjacency() map[string][]string {
	return map[string][]string{
		"Greater London":     {"Surrey", "Kent", "Essex", "Hertfordshire"},
		"Surrey":             {"Greater London", "Kent", "Hampshire", "West Sussex"},
		"Kent":               {"Greater London", "Surrey", "East Sussex", "Essex"},
		"Essex":              {"Greater London", "Kent", "Hertfordshire", "Suffolk"},
		"Hertfordshire":      {"Greater London", "Essex", "Bedfordshire"},
		"Hampshire":          {"Surrey", "West Sussex", "Dorset", "Wiltshire"},
		"West Sussex":        {"Surrey", "Hampshire", "East Sussex"},
		"East Sussex":        {"Kent", "West Sussex"},
		"Greater Manchester": {"Lancashire", "Merseyside", "Cheshire", "West Yorkshire"},
		"Merseyside":         {"Greater Manchester", "Lancashire", "Cheshire"},
		"Lancashire":         {"Greater Manchester", "Merseyside", "West Yorkshire"},
		"Cheshire":           {"Greater Manchester", "Merseyside"},
		"West Yorkshire":     {"Greater Manchester", "Lancashire", "South Yorkshire"},
		"South Yorkshire":    {"West Yorkshire"},
		"West Midlands":      {"Warwickshire", "Staffordshire", "Worcestershire"},
		"Warwickshire":       {"West Midlands", "Worcestershire"},
		"Staffordshire":      {"West Midlands"},
		"Worcestershire":     {"West Midlands", "Warwickshire"},
	}
}

// SetDefaults fills zero-valued fields with production defaults.
func (c *Config) SetDefaults() {
	def := DefaultConfig()
	if c.CriticalUrgencyCeiling == 0 {
		c.CriticalUrgencyCeiling = def.CriticalUrgencyCeiling
	}
	if c.MaxDeliveryDelayHours == 0 {
		c.MaxDeliveryDelayHours = def.MaxDeliveryDelayHours
	}
	if c.UrgencyTolerance == 0 {
		c.UrgencyTolerance = def.UrgencyTolerance
	}
	if c.UrgencyRiskThreshold == 0 {
		c.UrgencyRiskThreshold = def.UrgencyRiskThreshold
	}
	if c.HighValueThreshold == 0 {
		c.HighValueThreshold = def.HighValueThreshold
	}
	if c.VeryHighValueThreshold == 0 {
		c.VeryHighValueThreshold = def.VeryHighValueThreshold
	}
	if c.BasePickingMinutes == 0 {
		c.BasePickingMinutes = def.BasePickingMinutes
	}
	if c.BatchSetupMinutes == 0 {
		c.BatchSetupMinutes = def.BatchSetupMinutes
	}
	if c.SKUItemReduction == 0 {
		c.SKUItemReduction = def.SKUItemReduction
	}
	if c.CountyTravelBonus == 0 {
		c.CountyTravelBonus = def.CountyTravelBonus
	}
	if c.AdjacentTravelBonus == 0 {
		c.AdjacentTravelBonus = def.AdjacentTravelBonus
	}
	if c.UrgencyFlowBonus == 0 {
		c.UrgencyFlowBonus = def.UrgencyFlowBonus
	}
	if c.ValueCareBonus == 0 {
		c.ValueCareBonus = def.ValueCareBonus
	}
	if c.FloorFraction == 0 {
		c.FloorFraction = def.FloorFraction
	}
	if c.CostPerMinute == 0 {
		c.CostPerMinute = def.CostPerMinute
	}
	if c.MinTimeSavings == 0 {
		c.MinTimeSavings = def.MinTimeSavings
	}
	if c.MinHybridTimeSavings == 0 {
		c.MinHybridTimeSavings = def.MinHybridTimeSavings
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = def.MaxBatchSize
	}
	if c.MaxRecommendations == 0 {
		c.MaxRecommendations = def.MaxRecommendations
	}
	if c.SKUPrefixLen == 0 {
		c.SKUPrefixLen = def.SKUPrefixLen
	}
	if c.Adjacency == nil {
		c.Adjacency = def.Adjacency
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.MaxBatchSize < 2 {
		return fmt.Errorf("max_batch_size must be at least 2, got %d", c.MaxBatchSize)
	}
	if c.FloorFraction <= 0 || c.FloorFraction >= 1 {
		return fmt.Errorf("floor_fraction must be in (0,1), got %.2f", c.FloorFraction)
	}
	if c.BasePickingMinutes <= 0 {
		return fmt.Errorf("base_picking_minutes must be positive")
	}
	if c.CriticalUrgencyCeiling <= 0 || c.CriticalUrgencyCeiling > 100 {
		return fmt.Errorf("critical_urgency_ceiling must be in (0,100]")
	}
	return nil
}
