package matching

import (
	"context"
	"time"

	"gonum.org/v1/gonum/stat"
)

// responseTimeScore buckets the provider's mean acceptance latency over
// the trailing history window. Providers with no history get a neutral
// score rather than being penalised.
func (m *Matcher) responseTimeScore(ctx context.Context, providerID string) float64 {
	if m.history == nil {
		return 0.5
	}
	window := time.Duration(m.cfg.HistoryWindowDays) * 24 * time.Hour
	latencies, err := m.history.HistoricalResponseTimes(ctx, providerID, window)
	if err != nil {
		m.logger.Warnf("response history for %s: %v", providerID, err)
		return 0.5
	}
	if len(latencies) == 0 {
		return 0.5
	}
	minutes := make([]float64, len(latencies))
	for i, l := range latencies {
		minutes[i] = l.Minutes()
	}
	mean := stat.Mean(minutes, nil)
	switch {
	case mean <= 5:
		return 1.0
	case mean <= 10:
		return 0.8
	case mean <= 20:
		return 0.6
	case mean <= 30:
		return 0.4
	default:
		return 0.2
	}
}
