// ABOUTME: CLI commands for analytics, the training summary, and the calendar grid.
// ABOUTME: Reads the assembled snapshot and prints it as text or JSON.
package main

import (
	"fmt"
	"io"

	"github.com/harperreed/cledger/internal/analytics"
	"github.com/harperreed/cledger/internal/calendar"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/spf13/cobra"
)

func newAnalyticsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "analytics",
		Aliases: []string{"stats"},
		Short:   "Show training analytics",
		Long: `Show the current analytics snapshot:

  - sessions this week (Monday to Sunday)
  - hard sessions (intensity 7+) in the last 7 days
  - this week's training load (intensity x minutes, an hour when unknown)
  - consecutive days trained without rest
  - injury flags by location over the last 30 days
  - eight weeks of session counts, load, and average ratings
  - the week-over-week load trend (±10% counts as stable)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.assembler.Assemble(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to compute analytics: %w", err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), snap)
			}
			printAnalytics(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printAnalytics(w io.Writer, snap *models.Analytics) {
	fmt.Fprintf(w, "Sessions this week:      %d\n", snap.SessionsThisWeek)
	fmt.Fprintf(w, "Hard sessions (7 days):  %d\n", snap.HardSessionsLast7Days)
	fmt.Fprintf(w, "Training load this week: %.0f\n", snap.CurrentWeekTrainingLoad)
	fmt.Fprintf(w, "Days since rest:         %d\n", snap.DaysSinceLastRestDay)
	fmt.Fprintf(w, "Load trend:              %s\n", snap.LoadTrend)

	if len(snap.PainFlagsLast30Days) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Pain flags (30 days)")
		for _, p := range snap.PainFlagsLast30Days {
			fmt.Fprintf(w, "  %s %d %s\n", padRight(p.Location, 16), p.Count, faint.Sprintf("(weighted %d)", p.WeightedCount))
		}
	}

	fmt.Fprintln(w)
	bold.Fprintln(w, "Week        Sessions  Load   Perf  Prod")
	for i, wk := range snap.WeeklySessionCounts {
		load, perf, prod := 0.0, "-", "-"
		if i < len(snap.WeeklyTrainingLoad) {
			load = snap.WeeklyTrainingLoad[i].Load
		}
		if i < len(snap.PerformanceTrend) {
			perf = formatAverage(snap.PerformanceTrend[i].Average)
		}
		if i < len(snap.ProductivityTrend) {
			prod = formatAverage(snap.ProductivityTrend[i].Average)
		}
		fmt.Fprintf(w, "%s  %8d  %5.0f  %4s  %4s\n", wk.WeekStart, wk.Count, load, perf, prod)
	}
}

func formatAverage(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the coaching summary as JSON",
		Long: `Print the training summary an AI coach reads: the last 14 days of sessions
and injuries, the analytics overview and trends, and the first five insights.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := analytics.Summarize(cmd.Context(), a.repo, a.assembler)
			if err != nil {
				return fmt.Errorf("failed to build training summary: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func newCalendarCmd(a *app) *cobra.Command {
	var (
		weeks  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Show a week-by-week calendar of sessions",
		Long: `Show recent weeks as Monday-to-Sunday rows. Only weeks with at least one
session are shown. Each day shows how many sessions were logged and is
marked hard (H) when any of them reached intensity 7.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if weeks < 1 {
				return fmt.Errorf("%w: weeks must be at least 1", models.ErrInvalid)
			}
			today := a.now()
			from := calendar.WeekStart(today).AddDate(0, 0, -7*(weeks-1))
			sessions, err := a.repo.ListSessions(cmd.Context(), storage.SessionFilter{From: models.FormatDate(from)})
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}

			rows := calendar.CalendarRows(sessions, today)
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}

			fmt.Fprintf(out, "%-16s %s\n", "", " Mon  Tue  Wed  Thu  Fri  Sat  Sun")
			for _, row := range rows {
				fmt.Fprintf(out, "%-16s", row.Label)
				for _, day := range row.Days {
					fmt.Fprint(out, " "+dayCell(day))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&weeks, "weeks", "w", 8, "number of weeks to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// dayCell renders a four-character cell: count, hard marker, today marker.
func dayCell(day calendar.DayCell) string {
	cell := "  . "
	if n := len(day.Sessions); n > 0 {
		hard := " "
		for _, s := range day.Sessions {
			if s.IsHard() {
				hard = "H"
			}
		}
		cell = fmt.Sprintf("%3d%s", n, hard)
		if hard == "H" {
			cell = yellow.Sprint(cell)
		}
	}
	if day.IsToday {
		cell = bold.Sprint(cell)
	}
	return cell
}
