// ABOUTME: Coaching summary combining recent sessions, analytics, and insights.
// ABOUTME: Also flattens session injuries into a per-injury listing.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Summary window sizes.
const (
	SummaryDays     = 14
	SummaryInsights = 5
)

// InjuryEntry is one injury together with the session it was logged on.
type InjuryEntry struct {
	SessionID   uuid.UUID `json:"sessionId"`
	SessionDate string    `json:"sessionDate"`
	Location    string    `json:"location"`
	Note        *string   `json:"note"`
	Severity    *int      `json:"severity"`
}

// FlattenInjuries lists every injury across sessions in session order.
func FlattenInjuries(sessions []*models.Session) []InjuryEntry {
	out := []InjuryEntry{}
	for _, s := range sessions {
		for _, inj := range s.Injuries {
			out = append(out, InjuryEntry{
				SessionID:   s.ID,
				SessionDate: s.Date,
				Location:    inj.Location,
				Note:        inj.Note,
				Severity:    inj.Severity,
			})
		}
	}
	return out
}

// Overview holds the headline numbers of a summary.
type Overview struct {
	TotalSessionsLast14Days int          `json:"totalSessionsLast14Days"`
	SessionsThisWeek        int          `json:"sessionsThisWeek"`
	HardSessionsLast7Days   int          `json:"hardSessionsLast7Days"`
	CurrentWeekTrainingLoad float64      `json:"currentWeekTrainingLoad"`
	DaysSinceLastRestDay    int          `json:"daysSinceLastRestDay"`
	LoadTrend               models.Trend `json:"loadTrend"`
}

// SessionSummary is the trimmed session shape used in summaries.
type SessionSummary struct {
	ID              uuid.UUID            `json:"id"`
	Date            string               `json:"date"`
	Types           []models.SessionType `json:"types"`
	Intensity       int                  `json:"intensity"`
	Performance     models.Performance   `json:"performance"`
	Productivity    models.Productivity  `json:"productivity"`
	DurationMinutes *int                 `json:"durationMinutes"`
	Venue           *string              `json:"venue"`
	MaxGrade        *string              `json:"maxGrade"`
	Injuries        []models.Injury      `json:"injuries"`
	Notes           *string              `json:"notes"`
}

// InsightSummary is the trimmed insight shape used in summaries.
type InsightSummary struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Pinned    bool      `json:"pinned"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TrainingSummary is a single-call overview of the athlete's current state.
type TrainingSummary struct {
	Overview                Overview                    `json:"overview"`
	RecentSessions          []SessionSummary            `json:"recentSessions"`
	RecentInjuries          []InjuryEntry               `json:"recentInjuries"`
	InjurySummaryLast30Days []models.PainFlagCount      `json:"injurySummaryLast30Days"`
	WeeklySessionCounts     []models.WeeklySessionCount `json:"weeklySessionCounts"`
	WeeklyTrainingLoad      []models.WeeklyTrainingLoad `json:"weeklyTrainingLoad"`
	PerformanceTrend        []models.WeeklyTrend        `json:"performanceTrend"`
	ProductivityTrend       []models.WeeklyTrend        `json:"productivityTrend"`
	CoachInsights           []InsightSummary            `json:"coachInsights"`
}

// SummaryCutoff is the earliest session date included in a summary for today.
func SummaryCutoff(today time.Time) string {
	return models.FormatDate(today.AddDate(0, 0, -SummaryDays))
}

// BuildTrainingSummary shapes already-fetched data into a TrainingSummary.
// Sessions dated before the cutoff are dropped by string comparison and
// insights are trimmed to the first five, which are already pinned-first.
func BuildTrainingSummary(sessions []*models.Session, a *models.Analytics, insights []*models.Insight, today time.Time) *TrainingSummary {
	cutoff := SummaryCutoff(today)

	recent := make([]*models.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Date >= cutoff {
			recent = append(recent, s)
		}
	}

	summary := &TrainingSummary{
		Overview: Overview{
			TotalSessionsLast14Days: len(recent),
			SessionsThisWeek:        a.SessionsThisWeek,
			HardSessionsLast7Days:   a.HardSessionsLast7Days,
			CurrentWeekTrainingLoad: a.CurrentWeekTrainingLoad,
			DaysSinceLastRestDay:    a.DaysSinceLastRestDay,
			LoadTrend:               a.LoadTrend,
		},
		RecentSessions:          make([]SessionSummary, 0, len(recent)),
		RecentInjuries:          FlattenInjuries(recent),
		InjurySummaryLast30Days: a.PainFlagsLast30Days,
		WeeklySessionCounts:     a.WeeklySessionCounts,
		WeeklyTrainingLoad:      a.WeeklyTrainingLoad,
		PerformanceTrend:        a.PerformanceTrend,
		ProductivityTrend:       a.ProductivityTrend,
		CoachInsights:           make([]InsightSummary, 0, SummaryInsights),
	}

	for _, s := range recent {
		summary.RecentSessions = append(summary.RecentSessions, SessionSummary{
			ID:              s.ID,
			Date:            s.Date,
			Types:           s.Types,
			Intensity:       s.Intensity,
			Performance:     s.Performance,
			Productivity:    s.Productivity,
			DurationMinutes: s.DurationMinutes,
			Venue:           s.Venue,
			MaxGrade:        s.MaxGrade,
			Injuries:        s.Injuries,
			Notes:           s.Notes,
		})
	}

	for i, in := range insights {
		if i == SummaryInsights {
			break
		}
		summary.CoachInsights = append(summary.CoachInsights, InsightSummary{
			ID:        in.ID,
			Content:   in.Content,
			Pinned:    in.Pinned,
			UpdatedAt: in.UpdatedAt,
		})
	}

	return summary
}

// Reader is the read side of storage a summary needs.
type Reader interface {
	ListSessions(ctx context.Context, f storage.SessionFilter) ([]*models.Session, error)
	ListInsights(ctx context.Context) ([]*models.Insight, error)
}

// Summarize fetches sessions, analytics, and insights concurrently and
// builds the training summary.
func Summarize(ctx context.Context, r Reader, a *Assembler) (*TrainingSummary, error) {
	today := a.Today()

	var (
		sessions []*models.Session
		snapshot *models.Analytics
		insights []*models.Insight
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sessions, err = r.ListSessions(gctx, storage.SessionFilter{From: SummaryCutoff(today)})
		return err
	})
	g.Go(func() error {
		var err error
		snapshot, err = a.Assemble(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		insights, err = r.ListInsights(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return BuildTrainingSummary(sessions, snapshot, insights, today), nil
}
