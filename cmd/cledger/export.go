// ABOUTME: CLI commands for exporting and importing training data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats.
package main

import (
	"fmt"
	"os"

	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		output string
		since  string
	)
	cmd := &cobra.Command{
		Use:   "export <format>",
		Short: "Export training data",
		Long: `Export training data in various formats.

FORMATS:

  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export (human-readable)
  markdown   Markdown log grouped by week (for sharing with a coach)

OPTIONS:

  --output, -o   Write to file instead of stdout
  --since        Only include sessions since this date (markdown only)

EXAMPLES:

  cledger export json                        # Export all data as JSON
  cledger export json -o backup.json         # Save to file
  cledger export yaml                        # Export as YAML
  cledger export markdown --since 2026-01-01 # This year's log as Markdown`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"json", "yaml", "markdown"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				data []byte
				err  error
			)
			switch format := args[0]; format {
			case "json":
				data, err = storage.ExportJSON(ctx, a.repo)
			case "yaml":
				data, err = storage.ExportYAML(ctx, a.repo)
			case "markdown", "md":
				if since != "" {
					if _, perr := models.ParseDate(since); perr != nil {
						return perr
					}
				}
				var md string
				md, err = storage.ExportMarkdown(ctx, a.repo, since)
				data = []byte(md)
			default:
				return fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", format)
			}
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			if output != "" {
				if err := os.WriteFile(output, data, 0600); err != nil {
					return fmt.Errorf("failed to write file: %w", err)
				}
				green.Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", output)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&since, "since", "", "only include sessions since date (YYYY-MM-DD)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import training data from JSON",
		Long: `Import sessions and insights from a JSON export.

IDs and timestamps are preserved. Entries whose ID already exists cause an
error, so import into an empty store.

EXAMPLES:

  cledger import backup.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			if err := storage.ImportJSON(cmd.Context(), a.repo, data); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			green.Fprintf(cmd.OutOrStdout(), "✓ Imported from %s\n", args[0])
			return nil
		},
	}
}
