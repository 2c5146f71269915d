package metrics

import coremetrics "github.com/ngantchou/warap-ai-sub004/core/metrics"

// MultiSink fans dispatch events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatchOutcome forwards the outcomes to all sinks, returning the
// first error encountered.
func (m *MultiSink) RecordDispatchOutcome(res []coremetrics.DispatchOutcome) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatchOutcome(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordNotification forwards notification events.
func (m *MultiSink) RecordNotification(ev coremetrics.NotificationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.NotificationRecorder); ok {
			if err := rec.RecordNotification(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordResponseLatency forwards latency records.
func (m *MultiSink) RecordResponseLatency(recs []coremetrics.ResponseLatency) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.LatencyRecorder); ok {
			if err := rec.RecordResponseLatency(recs); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDispatchRun forwards run summaries.
func (m *MultiSink) RecordDispatchRun(ev coremetrics.RunEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.RunRecorder); ok {
			if err := rec.RecordDispatchRun(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
