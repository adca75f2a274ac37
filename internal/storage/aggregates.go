// ABOUTME: Named aggregate procedures evaluated by the SQLite backend.
// ABOUTME: Each aggregate is a single SQL statement parameterised by owner and day.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/cledger/internal/models"
)

// Aggregate names shared by every backend.
const (
	AggSessionsThisWeek        = "sessions_this_week"
	AggHardSessionsLast7Days   = "hard_sessions_last_7_days"
	AggCurrentWeekTrainingLoad = "current_week_training_load"
	AggDaysSinceLastRestDay    = "days_since_last_rest_day"
	AggPainFlagsLast30Days     = "pain_flags_last_30_days"
	AggWeeklySessionCounts     = "weekly_session_counts"
	AggWeeklyTrainingLoad      = "weekly_training_load"
	AggPerformanceTrend        = "performance_trend"
	AggProductivityTrend       = "productivity_trend"
)

// AggregateSpec describes the result shape of a named aggregate.
// A scalar aggregate yields one row with one column named after the aggregate.
type AggregateSpec struct {
	Name   string
	Scalar bool
}

// Aggregates lists every aggregate that makes up an analytics snapshot.
var Aggregates = []AggregateSpec{
	{Name: AggSessionsThisWeek, Scalar: true},
	{Name: AggHardSessionsLast7Days, Scalar: true},
	{Name: AggCurrentWeekTrainingLoad, Scalar: true},
	{Name: AggDaysSinceLastRestDay, Scalar: true},
	{Name: AggPainFlagsLast30Days},
	{Name: AggWeeklySessionCounts},
	{Name: AggWeeklyTrainingLoad},
	{Name: AggPerformanceTrend},
	{Name: AggProductivityTrend},
}

// Every query binds (owner, today) through the params CTE.
const paramsCTE = `WITH RECURSIVE p AS (
	SELECT ? AS uid, ? AS today
), w AS (
	SELECT uid, today,
		date(today, '-' || ((CAST(strftime('%w', today) AS INTEGER) + 6) % 7) || ' days') AS monday
	FROM p
), weeks(week_start, n) AS (
	SELECT date(monday, '-49 days'), 0 FROM w
	UNION ALL
	SELECT date(week_start, '+7 days'), n + 1 FROM weeks WHERE n < 7
)
`

const weeklyJoin = `
	FROM weeks CROSS JOIN w
	LEFT JOIN sessions s ON s.user_id = w.uid
		AND s.date BETWEEN weeks.week_start AND date(weeks.week_start, '+6 days')
	GROUP BY weeks.week_start
	ORDER BY weeks.week_start`

const sessionLoad = `s.intensity * COALESCE(s.duration_minutes, 60)`

var sqliteAggregates = map[string]string{
	AggSessionsThisWeek: paramsCTE + `
	SELECT COUNT(*) AS sessions_this_week
	FROM sessions s, w
	WHERE s.user_id = w.uid AND s.date BETWEEN w.monday AND date(w.monday, '+6 days')`,

	AggHardSessionsLast7Days: paramsCTE + `
	SELECT COUNT(*) AS hard_sessions_last_7_days
	FROM sessions s, w
	WHERE s.user_id = w.uid AND s.intensity >= 7
		AND s.date BETWEEN date(w.today, '-6 days') AND w.today`,

	AggCurrentWeekTrainingLoad: paramsCTE + `
	SELECT COALESCE(SUM(` + sessionLoad + `), 0) * 1.0 AS current_week_training_load
	FROM sessions s, w
	WHERE s.user_id = w.uid AND s.date BETWEEN w.monday AND date(w.monday, '+6 days')`,

	// Streak of consecutive training days ending today, searched back 365 days.
	AggDaysSinceLastRestDay: paramsCTE + `, days(d, n) AS (
		SELECT today, 0 FROM p
		UNION ALL
		SELECT date(d, '-1 day'), n + 1 FROM days WHERE n < 364
	)
	SELECT COALESCE(MIN(days.n), 365) AS days_since_last_rest_day
	FROM days
	WHERE NOT EXISTS (
		SELECT 1 FROM sessions s, p WHERE s.user_id = p.uid AND s.date = days.d
	)`,

	AggPainFlagsLast30Days: paramsCTE + `
	SELECT i.location AS location,
		COUNT(DISTINCT i.id) AS count,
		SUM(COALESCE(i.severity, 1)) AS weighted_count
	FROM session_injuries i
	JOIN sessions s ON s.id = i.session_id
	CROSS JOIN w
	WHERE s.user_id = w.uid AND s.date BETWEEN date(w.today, '-29 days') AND w.today
	GROUP BY i.location
	ORDER BY COUNT(DISTINCT i.id) DESC, i.location ASC`,

	AggWeeklySessionCounts: paramsCTE + `
	SELECT weeks.week_start AS week_start, COUNT(s.id) AS count` + weeklyJoin,

	AggWeeklyTrainingLoad: paramsCTE + `
	SELECT weeks.week_start AS week_start,
		COALESCE(SUM(` + sessionLoad + `), 0) * 1.0 AS load` + weeklyJoin,

	AggPerformanceTrend: paramsCTE + `
	SELECT weeks.week_start AS week_start,
		AVG(CASE
			WHEN s.id IS NULL THEN NULL
			WHEN s.performance = 'weak' THEN 1.0
			WHEN s.performance = 'strong' THEN 3.0
			ELSE 2.0
		END) AS average` + weeklyJoin,

	AggProductivityTrend: paramsCTE + `
	SELECT weeks.week_start AS week_start,
		AVG(CASE
			WHEN s.id IS NULL THEN NULL
			WHEN s.productivity = 'low' THEN 1.0
			WHEN s.productivity = 'high' THEN 3.0
			ELSE 2.0
		END) AS average` + weeklyJoin,
}

// Aggregate runs the named aggregate for the calendar day of today.
func (d *DB) Aggregate(ctx context.Context, name string, today time.Time) ([]Row, error) {
	query, ok := sqliteAggregates[name]
	if !ok {
		return nil, fmt.Errorf("%w: aggregate %s", ErrNotFound, name)
	}

	rows, err := d.db.QueryContext(ctx, query, d.owner.String(), models.FormatDate(today))
	if err != nil {
		return nil, fmt.Errorf("run aggregate %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read aggregate columns: %w", err)
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan aggregate %s: %w", name, err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run aggregate %s: %w", name, err)
	}
	return result, nil
}
