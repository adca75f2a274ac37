// ABOUTME: CLI commands for injuries attached to sessions.
// ABOUTME: Supports add, list, and locations subcommands.
package main

import (
	"fmt"

	"github.com/harperreed/cledger/internal/analytics"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/spf13/cobra"
)

func newInjuryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "injury",
		Aliases: []string{"inj"},
		Short:   "Manage injuries",
		Long: `Injuries are pain or injury flags attached to a session.

Severity runs from 1 to 5: Tweak, Minor, Moderate, Limiting, Severe.
Injuries from the last 30 days feed the pain flags in 'cledger analytics'.`,
	}
	cmd.AddCommand(
		newInjuryAddCmd(a),
		newInjuryListCmd(a),
		newInjuryLocationsCmd(a),
	)
	return cmd
}

func newInjuryAddCmd(a *app) *cobra.Command {
	var (
		severity int
		note     string
	)
	cmd := &cobra.Command{
		Use:   "add <session-id> <location>",
		Short: "Add an injury to a session",
		Long: `Add an injury to an existing session.

Examples:
  cledger injury add abc12345 finger --severity 2
  cledger injury add abc12345 shoulder --note "sore after gastons"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.repo.GetSession(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get session: %w", err)
			}

			inj := models.InjuryInput{Location: args[1], Note: optional(note)}
			if cmd.Flags().Changed("severity") {
				inj.Severity = &severity
			}

			in := models.InputFromSession(s)
			in.Injuries = append(in.Injuries, inj)
			if err := in.Apply(s); err != nil {
				return err
			}
			if err := a.repo.UpdateSession(ctx, s); err != nil {
				return fmt.Errorf("failed to add injury: %w", err)
			}

			out := cmd.OutOrStdout()
			green.Fprintf(out, "✓ Added injury %s\n", args[1])
			printSessionLine(out, s)
			return nil
		},
	}
	cmd.Flags().IntVar(&severity, "severity", 0, "severity 1-5")
	cmd.Flags().StringVar(&note, "note", "", "note")
	return cmd
}

func newInjuryListCmd(a *app) *cobra.Command {
	var (
		from   string
		to     string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List injuries newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.repo.ListSessions(cmd.Context(), storage.SessionFilter{From: from, To: to})
			if err != nil {
				return fmt.Errorf("failed to list injuries: %w", err)
			}
			injuries := analytics.FlattenInjuries(sessions)

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, injuries)
			}
			if len(injuries) == 0 {
				fmt.Fprintln(out, "No injuries found.")
				return nil
			}
			for _, inj := range injuries {
				severity := " "
				if inj.Severity != nil {
					severity = fmt.Sprint(*inj.Severity)
				}
				note := ""
				if inj.Note != nil {
					note = faint.Sprintf(" (%s)", truncate(*inj.Note, 40))
				}
				fmt.Fprintf(out, "%s %s %s %s%s\n",
					faint.Sprint(shortID(inj.SessionID)),
					inj.SessionDate,
					severity,
					inj.Location,
					note)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start date inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date inclusive (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newInjuryLocationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List injury locations used so far",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			locations, err := a.repo.ListInjuryLocations(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list injury locations: %w", err)
			}
			for _, l := range locations {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
}
