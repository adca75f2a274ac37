// ABOUTME: CLI commands for coaching insights.
// ABOUTME: Supports add, list, edit, and delete subcommands.
package main

import (
	"fmt"
	"strings"

	"github.com/harperreed/cledger/internal/models"
	"github.com/spf13/cobra"
)

func newInsightCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "insight",
		Aliases: []string{"i"},
		Short:   "Manage coaching insights",
		Long: `Insights are free-text coaching notes that are not tied to one session.
Pinned insights list first and are the first included in the training summary.`,
	}
	cmd.AddCommand(
		newInsightAddCmd(a),
		newInsightListCmd(a),
		newInsightEditCmd(a),
		newInsightDeleteCmd(a),
	)
	return cmd
}

func printInsightLine(cmd *cobra.Command, i *models.Insight) {
	pin := " "
	if i.Pinned {
		pin = yellow.Sprint("*")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n",
		faint.Sprint(shortID(i.ID)),
		pin,
		faint.Sprint(i.UpdatedAt.Format("2006-01-02")),
		truncate(i.Content, 80))
}

func newInsightAddCmd(a *app) *cobra.Command {
	var pinned bool
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add an insight",
		Long: `Add a coaching insight. Arguments are joined with spaces.

Examples:
  cledger insight add "Two hard days in a row leaves fingers tweaky"
  cledger insight add Deload every fourth week --pin`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i := models.NewInsight(strings.Join(args, " ")).WithPinned(pinned)
			if err := a.repo.CreateInsight(cmd.Context(), i); err != nil {
				return fmt.Errorf("failed to create insight: %w", err)
			}
			green.Fprintf(cmd.OutOrStdout(), "✓ Added insight\n")
			printInsightLine(cmd, i)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pinned, "pin", false, "pin the insight")
	return cmd
}

func newInsightListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List insights, pinned first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			insights, err := a.repo.ListInsights(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list insights: %w", err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), insights)
			}
			if len(insights) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No insights found.")
				return nil
			}
			for _, i := range insights {
				printInsightLine(cmd, i)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newInsightEditCmd(a *app) *cobra.Command {
	var (
		content string
		pin     bool
		unpin   bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an insight's content or pinned state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pin && unpin {
				return fmt.Errorf("%w: --pin and --unpin are mutually exclusive", models.ErrInvalid)
			}
			ctx := cmd.Context()
			i, err := a.repo.GetInsight(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get insight: %w", err)
			}
			if cmd.Flags().Changed("content") {
				i.Content = content
			}
			if pin {
				i.Pinned = true
			}
			if unpin {
				i.Pinned = false
			}
			if err := a.repo.UpdateInsight(ctx, i); err != nil {
				return fmt.Errorf("failed to update insight: %w", err)
			}
			green.Fprintf(cmd.OutOrStdout(), "✓ Updated insight\n")
			printInsightLine(cmd, i)
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().BoolVar(&pin, "pin", false, "pin the insight")
	cmd.Flags().BoolVar(&unpin, "unpin", false, "unpin the insight")
	return cmd
}

func newInsightDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"del", "rm"},
		Short:   "Delete an insight",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			i, err := a.repo.GetInsight(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get insight: %w", err)
			}
			if err := a.repo.DeleteInsight(ctx, i.ID.String()); err != nil {
				return fmt.Errorf("failed to delete insight: %w", err)
			}
			yellow.Fprintf(cmd.OutOrStdout(), "✗ Deleted insight\n")
			printInsightLine(cmd, i)
			return nil
		},
	}
}
