package metrics

import (
	"time"

	"github.com/parcelops/dispatchd/core/model"
)

// ScoreRecord represents one DPS computation to be recorded.
type ScoreRecord struct {
	OrderNumber string
	Score       float64
	Urgency     model.UrgencyLevel
	Overdue     bool
	Generation  int
	Time        time.Time
}

// MetricsSink records scoring results for observability purposes.
type MetricsSink interface {
	RecordScores(records []ScoreRecord) error
}

// BatchRecommendationEvent captures a ranked batch recommendation.
type BatchRecommendationEvent struct {
	TargetOrder    string
	Type           string
	Orders         int
	TimeSavings    float64
	EfficiencyGain float64
	RiskScore      float64
	Time           time.Time
}

// BatchRecorder records batch optimizer output.
type BatchRecorder interface {
	RecordBatchRecommendation(ev BatchRecommendationEvent) error
}

// PackDurationEvent captures a completed pack session duration.
type PackDurationEvent struct {
	OrderNumber string
	Worker      string
	Estimated   time.Duration
	Actual      time.Duration
	Time        time.Time
}

// PackDurationRecorder records pack completion durations.
type PackDurationRecorder interface {
	RecordPackDuration(ev PackDurationEvent) error
}
