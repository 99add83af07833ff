package metrics

import "errors"

// MultiSink fans records out to several sinks. Optional recorder interfaces
// are forwarded only to sinks implementing them.
type MultiSink struct {
	sinks []MetricsSink
}

// NewMultiSink creates a MultiSink from the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordScores(records []ScoreRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordScores(records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordBatchRecommendation(ev BatchRecommendationEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if r, ok := s.(BatchRecorder); ok {
			if err := r.RecordBatchRecommendation(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordPackDuration(ev PackDurationEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if r, ok := s.(PackDurationRecorder); ok {
			if err := r.RecordPackDuration(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
