package batch

import (
	"time"

	"github.com/parcelops/dispatchd/core/model"
)

// Type identifies which grouping produced a recommendation.
type Type string

const (
	TypeSKU                Type = "sku"
	TypeSKUSimilar         Type = "sku_similar"
	TypeGeographic         Type = "geographic"
	TypeGeographicAdjacent Type = "geographic_adjacent"
	TypeUrgency            Type = "urgency"
	TypeValue              Type = "value"
	TypeHybrid             Type = "hybrid"
)

func (t Type) String() string { return string(t) }

// Efficiency holds the shared time-cost arithmetic for a batch, in minutes
// and GBP.
type Efficiency struct {
	BaseTime              float64 `json:"base_time"`
	BatchTime             float64 `json:"batch_time"`
	TimeSavings           float64 `json:"time_savings"`
	EfficiencyGainPercent float64 `json:"efficiency_gain_percent"`
	CostSavings           float64 `json:"cost_savings"`
	RiskScore             float64 `json:"risk_score"`
}

// Feasibility rates how practical a batch is to execute.
type Feasibility struct {
	Score  float64 `json:"score"`
	Rating string  `json:"rating"`
}

// Recommendation is a transient optimizer output. Never stored; recomputed
// per request. Orders always contains the target plus at least one other.
type Recommendation struct {
	Type        Type          `json:"type"`
	Orders      []model.Order `json:"orders"`
	Efficiency  Efficiency    `json:"efficiency"`
	Feasibility Feasibility   `json:"feasibility"`
	Steps       []string      `json:"steps"`
	Warnings    []string      `json:"warnings"`
}

// OrderNumbers returns the member order numbers, target first.
func (r Recommendation) OrderNumbers() []string {
	out := make([]string, len(r.Orders))
	for i, o := range r.Orders {
		out[i] = o.OrderNumber
	}
	return out
}

// Contains reports whether the batch includes the given order.
func (r Recommendation) Contains(orderNumber string) bool {
	for _, o := range r.Orders {
		if o.OrderNumber == orderNumber {
			return true
		}
	}
	return false
}

// Result is the optimizer's reply for one target order. Reason is set when
// no opportunities exist.
type Result struct {
	Opportunities []Recommendation `json:"opportunities"`
	Reason        string           `json:"reason,omitempty"`
}

// ExecutionStatus tracks a running batch execution.
type ExecutionStatus string

const (
	ExecutionProcessing ExecutionStatus = "PROCESSING"
	ExecutionCompleted  ExecutionStatus = "COMPLETED"
)

// Execution is the tracked record returned by ExecuteBatch. Per-order pack
// state stays with the pack tracker; this record only mirrors sub-status for
// progress display.
type Execution struct {
	ID                  string            `json:"id"`
	TargetOrder         string            `json:"target_order"`
	OrderNumbers        []string          `json:"order_numbers"`
	Status              ExecutionStatus   `json:"status"`
	OrderStatus         map[string]string `json:"order_status"`
	StartedAt           time.Time         `json:"started_at"`
	EstimatedCompletion time.Time         `json:"estimated_completion"`
}
