// ABOUTME: Weekly aggregate family and the Analytics snapshot view model.
// ABOUTME: Field tags use the camelCase names produced by the analytics assembler.
package models

// Trend classifies week-over-week movement of a metric.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// PainFlagCount is the number of injuries logged at one body location.
type PainFlagCount struct {
	Location      string `json:"location" mapstructure:"location"`
	Count         int    `json:"count" mapstructure:"count"`
	WeightedCount int    `json:"weightedCount" mapstructure:"weightedCount"`
}

// WeeklySessionCount is the number of sessions in the week starting WeekStart.
type WeeklySessionCount struct {
	WeekStart string `json:"weekStart" mapstructure:"weekStart"`
	Count     int    `json:"count" mapstructure:"count"`
}

// WeeklyTrainingLoad is the summed training load of one week.
type WeeklyTrainingLoad struct {
	WeekStart string  `json:"weekStart" mapstructure:"weekStart"`
	Load      float64 `json:"load" mapstructure:"load"`
}

// WeeklyTrend is the average 1-3 rating of one week. Average is nil when
// the week had no sessions.
type WeeklyTrend struct {
	WeekStart string   `json:"weekStart" mapstructure:"weekStart"`
	Average   *float64 `json:"average" mapstructure:"average"`
}

// Analytics is a point-in-time snapshot assembled from the aggregate queries.
type Analytics struct {
	SessionsThisWeek        int                  `json:"sessionsThisWeek" mapstructure:"sessionsThisWeek"`
	HardSessionsLast7Days   int                  `json:"hardSessionsLast7Days" mapstructure:"hardSessionsLast7Days"`
	CurrentWeekTrainingLoad float64              `json:"currentWeekTrainingLoad" mapstructure:"currentWeekTrainingLoad"`
	DaysSinceLastRestDay    int                  `json:"daysSinceLastRestDay" mapstructure:"daysSinceLastRestDay"`
	PainFlagsLast30Days     []PainFlagCount      `json:"painFlagsLast30Days" mapstructure:"painFlagsLast30Days"`
	WeeklySessionCounts     []WeeklySessionCount `json:"weeklySessionCounts" mapstructure:"weeklySessionCounts"`
	WeeklyTrainingLoad      []WeeklyTrainingLoad `json:"weeklyTrainingLoad" mapstructure:"weeklyTrainingLoad"`
	PerformanceTrend        []WeeklyTrend        `json:"performanceTrend" mapstructure:"performanceTrend"`
	ProductivityTrend       []WeeklyTrend        `json:"productivityTrend" mapstructure:"productivityTrend"`
	LoadTrend               Trend                `json:"loadTrend" mapstructure:"-"`
}

// Loads returns the weekly load values oldest first.
func (a *Analytics) Loads() []float64 {
	loads := make([]float64, len(a.WeeklyTrainingLoad))
	for i, w := range a.WeeklyTrainingLoad {
		loads[i] = w.Load
	}
	return loads
}
