// ABOUTME: CLI commands for managing training sessions.
// ABOUTME: Supports add, list, show, edit, delete, and venues subcommands.
package main

import (
	"fmt"
	"strings"

	"github.com/harperreed/cledger/internal/calendar"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/spf13/cobra"
)

// sessionFlags are shared by session add and session edit.
type sessionFlags struct {
	date         string
	types        []string
	intensity    string
	performance  string
	productivity string
	duration     int
	notes        string
	grade        string
	venue        string
	injuries     []string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "session date YYYY-MM-DD (default today)")
	cmd.Flags().StringSliceVarP(&f.types, "type", "t", nil, "session type, repeatable or comma-separated")
	cmd.Flags().StringVarP(&f.intensity, "intensity", "i", "", "intensity 1-10 or easy, moderate, hard")
	cmd.Flags().StringVarP(&f.performance, "performance", "p", "", "weak, normal, or strong")
	cmd.Flags().StringVar(&f.productivity, "productivity", "", "low, normal, or high")
	cmd.Flags().IntVar(&f.duration, "duration", 0, "duration in minutes")
	cmd.Flags().StringVar(&f.notes, "notes", "", "session notes")
	cmd.Flags().StringVar(&f.grade, "grade", "", "hardest grade climbed")
	cmd.Flags().StringVar(&f.venue, "venue", "", "gym or crag")
	cmd.Flags().StringArrayVar(&f.injuries, "injury", nil, "injury as location[:severity[:note]], repeatable")
}

// apply copies the flags the user set onto in.
func (f *sessionFlags) apply(cmd *cobra.Command, in *models.SessionInput) error {
	changed := cmd.Flags().Changed
	if changed("date") {
		in.Date = f.date
	}
	if changed("type") {
		in.Types = in.Types[:0]
		for _, t := range f.types {
			in.Types = append(in.Types, models.SessionType(strings.ToLower(strings.TrimSpace(t))))
		}
	}
	if changed("intensity") {
		in.Intensity = models.IntensityInput(f.intensity)
	}
	if changed("performance") {
		in.Performance = models.Performance(f.performance)
	}
	if changed("productivity") {
		in.Productivity = models.Productivity(f.productivity)
	}
	if changed("duration") {
		d := f.duration
		in.DurationMinutes = &d
	}
	if changed("notes") {
		in.Notes = optional(f.notes)
	}
	if changed("grade") {
		in.MaxGrade = optional(f.grade)
	}
	if changed("venue") {
		in.Venue = optional(f.venue)
	}
	for _, spec := range f.injuries {
		inj, err := parseInjury(spec)
		if err != nil {
			return err
		}
		in.Injuries = append(in.Injuries, inj)
	}
	return nil
}

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"s"},
		Short:   "Manage training sessions",
		Long: `Log and review training sessions.

A session is one day's training activity. It has one or more types, an
intensity from 1 to 10 (easy, moderate, and hard map to 3, 6, and 8),
performance and productivity ratings, and optional duration, grade, venue,
notes, and injuries.

Training load is intensity times duration in minutes; sessions without a
duration count as an hour. Intensity 7 and above counts as a hard session.`,
	}
	cmd.AddCommand(
		newSessionAddCmd(a),
		newSessionListCmd(a),
		newSessionShowCmd(a),
		newSessionEditCmd(a),
		newSessionDeleteCmd(a),
		newSessionVenuesCmd(a),
	)
	return cmd
}

func newSessionAddCmd(a *app) *cobra.Command {
	var f sessionFlags
	cmd := &cobra.Command{
		Use:     "add",
		Aliases: []string{"a"},
		Short:   "Log a session",
		Long: `Log a training session.

Examples:
  cledger session add --type boulder --intensity 7 --duration 90
  cledger session add -t routes,strength -i hard -p strong --venue "The Depot"
  cledger session add -t hangboard --injury finger:2:"tweaky on half crimp"
  cledger session add -d 2026-01-30 -t board --grade V6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := models.SessionInput{Date: a.today()}
			if err := f.apply(cmd, &in); err != nil {
				return err
			}

			s, err := models.NewSessionFromInput(in)
			if err != nil {
				return err
			}
			if err := a.repo.CreateSession(cmd.Context(), s); err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}

			out := cmd.OutOrStdout()
			green.Fprintf(out, "✓ Added session\n")
			printSessionLine(out, s)
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newSessionListCmd(a *app) *cobra.Command {
	var (
		from   string
		to     string
		limit  int
		weekly bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "l"},
		Short:   "List sessions",
		Long: `List sessions newest first.

OUTPUT FORMAT:

  Each line shows: ID  DATE  TYPES  INTENSITY  DURATION  @ VENUE  (INJURIES)

  The ID is an 8-character prefix you can use with show, edit, and delete.
  Hard sessions (intensity 7+) are highlighted.

EXAMPLES:

  cledger session list                          # Last 20 sessions
  cledger session list --from 2026-01-01        # Since New Year
  cledger session list --weeks                  # Grouped by week
  cledger session list -n 0 --json              # Everything as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("%w: limit must not be negative", models.ErrInvalid)
			}
			sessions, err := a.repo.ListSessions(cmd.Context(), storage.SessionFilter{From: from, To: to, Limit: limit})
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if weekly {
					return printJSON(out, calendar.GroupByWeek(sessions))
				}
				return printJSON(out, sessions)
			}

			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}

			if !weekly {
				for _, s := range sessions {
					printSessionLine(out, s)
				}
				return nil
			}

			for i, g := range calendar.GroupByWeek(sessions) {
				if i > 0 {
					fmt.Fprintln(out)
				}
				var load float64
				for _, s := range g.Sessions {
					load += s.Load()
				}
				bold.Fprintf(out, "%s", g.Label)
				faint.Fprintf(out, "  %d session%s, load %.0f\n", len(g.Sessions), plural(len(g.Sessions), "", "s"), load)
				for _, s := range g.Sessions {
					printSessionLine(out, s)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start date inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date inclusive (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max number of results (0 for all)")
	cmd.Flags().BoolVarP(&weekly, "weeks", "w", false, "group sessions by week")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newSessionShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session with its injuries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.repo.GetSession(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get session: %w", err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}
			printSessionDetail(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newSessionEditCmd(a *app) *cobra.Command {
	var (
		f             sessionFlags
		clearInjuries bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a session",
		Long: `Edit a session. Only the flags you pass change; --injury appends to the
existing injuries unless --clear-injuries is also given.

Examples:
  cledger session edit abc12345 --intensity 8 --notes "felt strong"
  cledger session edit abc12345 --clear-injuries`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.repo.GetSession(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get session: %w", err)
			}

			in := models.InputFromSession(s)
			if clearInjuries {
				in.Injuries = in.Injuries[:0]
			}
			if err := f.apply(cmd, &in); err != nil {
				return err
			}
			if err := in.Apply(s); err != nil {
				return err
			}
			if err := a.repo.UpdateSession(ctx, s); err != nil {
				return fmt.Errorf("failed to update session: %w", err)
			}

			out := cmd.OutOrStdout()
			green.Fprintf(out, "✓ Updated session\n")
			printSessionLine(out, s)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&clearInjuries, "clear-injuries", false, "remove existing injuries")
	return cmd
}

func newSessionDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"del", "rm"},
		Short:   "Delete a session and its injuries",
		Long: `Delete a session by its ID or ID prefix.

CAUTION:

  This permanently deletes the session and its injuries. There is no undo.
  If the prefix matches multiple sessions, an error is returned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.repo.GetSession(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get session: %w", err)
			}
			if err := a.repo.DeleteSession(ctx, s.ID.String()); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}

			out := cmd.OutOrStdout()
			yellow.Fprintf(out, "✗ Deleted session\n")
			printSessionLine(out, s)
			return nil
		},
	}
}

func newSessionVenuesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "venues",
		Short: "List venues used so far",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			venues, err := a.repo.ListVenues(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list venues: %w", err)
			}
			for _, v := range venues {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}
