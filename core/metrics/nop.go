package metrics

// NopSink discards every record. Used when no sink is configured.
type NopSink struct{}

func (NopSink) RecordScores([]ScoreRecord) error { return nil }

func (NopSink) RecordBatchRecommendation(BatchRecommendationEvent) error { return nil }

func (NopSink) RecordPackDuration(PackDurationEvent) error { return nil }
