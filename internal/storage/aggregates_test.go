// ABOUTME: Tests for the SQLite named aggregate procedures.
// ABOUTME: Uses a fixed "today" so week boundaries and windows are deterministic.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/cledger/internal/models"
)

// Wednesday; the current week starts Monday 2026-02-02.
var aggToday = time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)

func seedAggregateData(t *testing.T, db *DB) {
	t.Helper()
	mustCreateSession(t, db, models.NewSession("2026-02-02", models.TypeBoard).
		WithIntensity(8).WithDuration(90).
		WithRatings(models.PerformanceStrong, models.ProductivityHigh))
	mustCreateSession(t, db, models.NewSession("2026-02-04", models.TypeBoulder).
		WithIntensity(5).
		WithRatings(models.PerformanceWeak, models.ProductivityNormal))
	mustCreateSession(t, db, models.NewSession("2026-01-27", models.TypeRoutes).
		WithIntensity(7).WithDuration(60).
		WithInjury(models.NewInjury("finger").WithSeverity(3)).
		WithInjury(models.NewInjury("finger")).
		WithInjury(models.NewInjury("elbow").WithSeverity(2)))
	// Outside every window.
	mustCreateSession(t, db, models.NewSession("2025-11-03", models.TypeBoulder).
		WithIntensity(10).
		WithInjury(models.NewInjury("knee")))
}

func runAggregate(t *testing.T, db *DB, name string) []Row {
	t.Helper()
	rows, err := db.Aggregate(context.Background(), name, aggToday)
	if err != nil {
		t.Fatalf("Aggregate(%s) failed: %v", name, err)
	}
	return rows
}

func scalar(t *testing.T, db *DB, name string) any {
	t.Helper()
	rows := runAggregate(t, db, name)
	if len(rows) != 1 {
		t.Fatalf("Aggregate(%s) returned %d rows, want 1", name, len(rows))
	}
	v, ok := rows[0][name]
	if !ok {
		t.Fatalf("Aggregate(%s) row has no %s column: %v", name, name, rows[0])
	}
	return v
}

func TestScalarAggregates(t *testing.T) {
	db := setupTestDB(t)
	seedAggregateData(t, db)

	tests := []struct {
		name string
		want any
	}{
		{AggSessionsThisWeek, int64(2)},
		{AggHardSessionsLast7Days, int64(1)},
		{AggCurrentWeekTrainingLoad, float64(8*90 + 5*60)},
		{AggDaysSinceLastRestDay, int64(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scalar(t, db, tt.name); got != tt.want {
				t.Errorf("%s = %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestDaysSinceLastRestDayStreak(t *testing.T) {
	db := setupTestDB(t)
	for _, d := range []string{"2026-02-04", "2026-02-03", "2026-02-02", "2026-01-31"} {
		mustCreateSession(t, db, models.NewSession(d, models.TypeBoulder))
	}
	// Two sessions on one day still count once.
	mustCreateSession(t, db, models.NewSession("2026-02-04", models.TypePrehab))

	if got := scalar(t, db, AggDaysSinceLastRestDay); got != int64(3) {
		t.Errorf("days since rest = %v, want 3", got)
	}
}

func TestDaysSinceLastRestDayRestedToday(t *testing.T) {
	db := setupTestDB(t)
	mustCreateSession(t, db, models.NewSession("2026-02-03", models.TypeBoulder))

	if got := scalar(t, db, AggDaysSinceLastRestDay); got != int64(0) {
		t.Errorf("days since rest = %v, want 0", got)
	}
}

func TestPainFlagsAggregate(t *testing.T) {
	db := setupTestDB(t)
	seedAggregateData(t, db)

	rows := runAggregate(t, db, AggPainFlagsLast30Days)
	if len(rows) != 2 {
		t.Fatalf("rows = %v, want finger and elbow", rows)
	}

	if rows[0]["location"] != "finger" || rows[0]["count"] != int64(2) || rows[0]["weighted_count"] != int64(4) {
		t.Errorf("rows[0] = %v, want finger count 2 weighted 4", rows[0])
	}
	if rows[1]["location"] != "elbow" || rows[1]["count"] != int64(1) || rows[1]["weighted_count"] != int64(2) {
		t.Errorf("rows[1] = %v, want elbow count 1 weighted 2", rows[1])
	}
}

func TestWeeklyAggregates(t *testing.T) {
	db := setupTestDB(t)
	seedAggregateData(t, db)

	counts := runAggregate(t, db, AggWeeklySessionCounts)
	if len(counts) != 8 {
		t.Fatalf("weekly counts len = %d, want 8", len(counts))
	}
	if counts[0]["week_start"] != "2025-12-15" {
		t.Errorf("first week = %v, want 2025-12-15", counts[0]["week_start"])
	}
	if counts[7]["week_start"] != "2026-02-02" || counts[7]["count"] != int64(2) {
		t.Errorf("current week = %v, want 2026-02-02 count 2", counts[7])
	}
	if counts[6]["week_start"] != "2026-01-26" || counts[6]["count"] != int64(1) {
		t.Errorf("previous week = %v, want 2026-01-26 count 1", counts[6])
	}
	if counts[0]["count"] != int64(0) {
		t.Errorf("empty week count = %v, want 0", counts[0]["count"])
	}

	loads := runAggregate(t, db, AggWeeklyTrainingLoad)
	if len(loads) != 8 {
		t.Fatalf("weekly loads len = %d, want 8", len(loads))
	}
	if loads[7]["load"] != float64(1020) || loads[6]["load"] != float64(420) || loads[0]["load"] != float64(0) {
		t.Errorf("loads = %v, want ... 420, 1020 with zero-filled weeks", loads)
	}

	perf := runAggregate(t, db, AggPerformanceTrend)
	if len(perf) != 8 {
		t.Fatalf("performance trend len = %d, want 8", len(perf))
	}
	if perf[0]["average"] != nil {
		t.Errorf("empty week average = %v, want nil", perf[0]["average"])
	}
	if perf[7]["average"] != float64(2) {
		t.Errorf("current week performance = %v, want 2 (strong+weak)", perf[7]["average"])
	}
	if perf[6]["average"] != float64(2) {
		t.Errorf("previous week performance = %v, want 2 (normal)", perf[6]["average"])
	}

	prod := runAggregate(t, db, AggProductivityTrend)
	if prod[7]["average"] != 2.5 {
		t.Errorf("current week productivity = %v, want 2.5 (high+normal)", prod[7]["average"])
	}
	if prod[1]["average"] != nil {
		t.Errorf("empty week productivity = %v, want nil", prod[1]["average"])
	}
}

func TestWeekStartOnSunday(t *testing.T) {
	db := setupTestDB(t)
	mustCreateSession(t, db, models.NewSession("2026-01-26", models.TypeBoulder))
	mustCreateSession(t, db, models.NewSession("2026-02-01", models.TypeBoulder))

	sunday := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	rows, err := db.Aggregate(context.Background(), AggSessionsThisWeek, sunday)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if rows[0][AggSessionsThisWeek] != int64(2) {
		t.Errorf("sessions this week on Sunday = %v, want 2", rows[0][AggSessionsThisWeek])
	}
}

func TestAggregatesScopedToOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	alice := setupTestDBForOwner(t, path, uuid.New())
	bob := setupTestDBForOwner(t, path, uuid.New())
	seedAggregateData(t, alice)

	for _, spec := range Aggregates {
		rows, err := bob.Aggregate(context.Background(), spec.Name, aggToday)
		if err != nil {
			t.Fatalf("Aggregate(%s) failed: %v", spec.Name, err)
		}
		if spec.Name == AggPainFlagsLast30Days && len(rows) != 0 {
			t.Errorf("bob sees pain flags: %v", rows)
		}
		if spec.Name == AggSessionsThisWeek && rows[0][spec.Name] != int64(0) {
			t.Errorf("bob sessions this week = %v, want 0", rows[0][spec.Name])
		}
	}
}

func TestUnknownAggregate(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.Aggregate(context.Background(), "nope", aggToday); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
