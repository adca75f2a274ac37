// ABOUTME: Integration tests for the PostgreSQL store.
// ABOUTME: Skipped unless CLEDGER_TEST_DATABASE_URL points at a disposable database.
package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("CLEDGER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CLEDGER_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := NewStore(ctx, dsn, uuid.New())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, s.owner)
		_, _ = s.pool.Exec(ctx, `DELETE FROM insights WHERE user_id = $1`, s.owner)
		_ = s.Close()
	})
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := models.NewSession("2026-01-26", models.TypeBoulder, models.TypeBoard).
		WithIntensity(8).
		WithDuration(90).
		WithInjury(models.NewInjury("finger").WithSeverity(2).WithNote("A2")).
		WithInjury(models.NewInjury("elbow"))
	require.NoError(t, s.CreateSession(ctx, v))

	got, err := s.GetSession(ctx, v.ID.String()[:8])
	require.NoError(t, err)
	assert.Equal(t, "2026-01-26", got.Date)
	assert.Equal(t, v.Types, got.Types)
	require.Len(t, got.Injuries, 2)
	assert.Equal(t, "finger", got.Injuries[0].Location)
	require.NotNil(t, got.Injuries[0].Severity)
	assert.Equal(t, 2, *got.Injuries[0].Severity)

	got.Injuries = []models.Injury{*models.NewInjury("wrist")}
	require.NoError(t, s.UpdateSession(ctx, got))

	again, err := s.GetSession(ctx, v.ID.String())
	require.NoError(t, err)
	require.Len(t, again.Injuries, 1)
	assert.Equal(t, "wrist", again.Injuries[0].Location)

	require.NoError(t, s.DeleteSession(ctx, v.ID.String()))
	_, err = s.GetSession(ctx, v.ID.String())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInsightOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plain := models.NewInsight("plain")
	pinned := models.NewInsight("pinned").WithPinned(true)
	pinned.UpdatedAt = plain.UpdatedAt.Add(-time.Hour)
	require.NoError(t, s.CreateInsight(ctx, plain))
	require.NoError(t, s.CreateInsight(ctx, pinned))

	list, err := s.ListInsights(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "pinned", list[0].Content)
}

func TestAggregates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	today := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateSession(ctx, models.NewSession("2026-02-02", models.TypeBoard).
		WithIntensity(8).WithDuration(90).
		WithRatings(models.PerformanceStrong, models.ProductivityHigh)))
	require.NoError(t, s.CreateSession(ctx, models.NewSession("2026-02-04", models.TypeBoulder).
		WithIntensity(5).
		WithRatings(models.PerformanceWeak, models.ProductivityNormal).
		WithInjury(models.NewInjury("finger").WithSeverity(3))))

	rows, err := s.Aggregate(ctx, storage.AggSessionsThisWeek, today)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows[0][storage.AggSessionsThisWeek])

	rows, err = s.Aggregate(ctx, storage.AggCurrentWeekTrainingLoad, today)
	require.NoError(t, err)
	assert.Equal(t, float64(1020), rows[0][storage.AggCurrentWeekTrainingLoad])

	rows, err = s.Aggregate(ctx, storage.AggPainFlagsLast30Days, today)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "finger", rows[0]["location"])
	assert.Equal(t, int64(3), rows[0]["weighted_count"])

	rows, err = s.Aggregate(ctx, storage.AggPerformanceTrend, today)
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, "2026-02-02", rows[7]["week_start"])
	assert.Equal(t, float64(2), rows[7]["average"])
	assert.Nil(t, rows[0]["average"])

	_, err = s.Aggregate(ctx, "drop_everything", today)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
