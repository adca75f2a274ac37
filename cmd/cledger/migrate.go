// ABOUTME: CLI command for copying data between storage backends.
// ABOUTME: Moves the configured store into an empty SQLite or Postgres store.
package main

import (
	"fmt"

	"github.com/harperreed/cledger/internal/config"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	var (
		to          string
		databaseURL string
		dataDir     string
		dryRun      bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy all data to another storage backend",
		Long: `Copy every session, injury, and insight from the configured backend into
another one. IDs and timestamps are preserved and the owner stays the same.

The destination must be empty. Afterwards, point backend (and database_url
or data_dir) in the config file at the destination.

USAGE:

  cledger migrate --to postgres --database-url postgres://localhost/cledger --dry-run
  cledger migrate --to postgres --database-url postgres://localhost/cledger
  cledger migrate --to sqlite --data-dir ~/cledger-copy`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dstCfg := *a.cfg
			dstCfg.Backend = to
			switch to {
			case config.BackendPostgres:
				if databaseURL == "" {
					return fmt.Errorf("--database-url is required for --to postgres")
				}
				dstCfg.DatabaseURL = databaseURL
			case config.BackendSQLite:
				if dataDir == "" {
					return fmt.Errorf("--data-dir is required for --to sqlite")
				}
				dstCfg.DataDir = dataDir
				if config.ExpandPath(dataDir) == a.cfg.GetDataDir() && a.cfg.GetBackend() == config.BackendSQLite {
					return fmt.Errorf("destination is the current database")
				}
			default:
				return fmt.Errorf("unknown backend: %q (use sqlite or postgres)", to)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				data, err := storage.GetAllData(ctx, a.repo)
				if err != nil {
					return err
				}
				injuries := 0
				for _, s := range data.Sessions {
					injuries += len(s.Injuries)
				}
				yellow.Fprintln(out, "Dry run mode - no changes will be made")
				fmt.Fprintf(out, "Would migrate %d sessions, %d injuries, %d insights to %s\n",
					len(data.Sessions), injuries, len(data.Insights), to)
				return nil
			}

			dst, err := dstCfg.OpenStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open destination: %w", err)
			}
			defer dst.Close()

			if err := requireEmpty(cmd, dst); err != nil {
				return err
			}

			summary, err := storage.MigrateData(ctx, a.repo, dst)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			green.Fprintf(out, "✓ Migrated %d sessions, %d injuries, %d insights to %s\n",
				summary.Sessions, summary.Injuries, summary.Insights, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "destination backend: sqlite or postgres")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "destination Postgres connection string")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "destination SQLite data directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview migration without making changes")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func requireEmpty(cmd *cobra.Command, repo storage.Repository) error {
	sessions, err := repo.ListSessions(cmd.Context(), storage.SessionFilter{Limit: 1})
	if err != nil {
		return fmt.Errorf("failed to inspect destination: %w", err)
	}
	insights, err := repo.ListInsights(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to inspect destination: %w", err)
	}
	if len(sessions) > 0 || len(insights) > 0 {
		return fmt.Errorf("destination is not empty")
	}
	return nil
}
