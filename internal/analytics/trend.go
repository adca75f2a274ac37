// ABOUTME: Week-over-week load trend classification.
// ABOUTME: Compares the two most recent weekly loads against a ±10% band.
package analytics

import "github.com/harperreed/cledger/internal/models"

// TrendThresholdPercent is the band within which a change counts as stable.
const TrendThresholdPercent = 10.0

// ClassifyLoadTrend classifies the movement between the last two weekly loads.
// loads is chronological, oldest first.
func ClassifyLoadTrend(loads []float64) models.Trend {
	if len(loads) < 2 {
		return models.TrendStable
	}

	prev := loads[len(loads)-2]
	curr := loads[len(loads)-1]

	if prev == 0 {
		if curr == 0 {
			return models.TrendStable
		}
		// Percent change is undefined from a zero baseline.
		return models.TrendIncreasing
	}

	change := (curr - prev) / prev * 100
	switch {
	case change > TrendThresholdPercent:
		return models.TrendIncreasing
	case change < -TrendThresholdPercent:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}
