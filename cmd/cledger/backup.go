// ABOUTME: CLI commands for Charm cloud snapshots of the training log.
// ABOUTME: Supports push, list, restore, and delete subcommands.
package main

import (
	"fmt"

	"github.com/harperreed/cledger/internal/backup"
	"github.com/spf13/cobra"
)

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the training log to Charm Cloud",
		Long: `Push full snapshots of the training log to Charm Cloud and restore them.

Snapshots are JSON exports stored in the encrypted Charm KV database
"cledger" and keyed by UTC timestamp. Link this device to your Charm account
with 'charm link' first. Set CHARM_HOST to use a different Charm server.

EXAMPLES:

  cledger backup push                    # Snapshot now
  cledger backup list                    # Newest first
  cledger backup restore                 # Restore the newest into an empty store
  cledger backup restore 20260204T0901   # Restore by timestamp prefix`,
	}
	cmd.AddCommand(
		newBackupPushCmd(a),
		newBackupListCmd(a),
		newBackupRestoreCmd(a),
		newBackupDeleteCmd(a),
	)
	return cmd
}

func (a *app) withBackup(fn func(c *backup.Client) error) error {
	c, err := a.openBackup()
	if err != nil {
		return fmt.Errorf("failed to open charm kv: %w", err)
	}
	defer c.Close()
	return fn(c)
}

func newBackupPushCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Push a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackup(func(c *backup.Client) error {
				snap, err := c.Push(cmd.Context(), a.repo)
				if err != nil {
					return fmt.Errorf("failed to push snapshot: %w", err)
				}
				green.Fprintf(cmd.OutOrStdout(), "✓ Pushed %s\n", snap.Key)
				fmt.Fprintf(cmd.OutOrStdout(), "  %d sessions, %d insights, %d bytes\n", snap.Sessions, snap.Insights, snap.Size)
				return nil
			})
		},
	}
}

func newBackupListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Aliases:     []string{"ls"},
		Short:       "List snapshots newest first",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackup(func(c *backup.Client) error {
				snaps, err := c.List()
				if err != nil {
					return fmt.Errorf("failed to list snapshots: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(snaps) == 0 {
					fmt.Fprintln(out, "No snapshots found.")
					return nil
				}
				for _, s := range snaps {
					fmt.Fprintf(out, "%s %s %d sessions, %d insights\n",
						s.Key,
						faint.Sprint(s.CreatedAt.Local().Format("2006-01-02 15:04")),
						s.Sessions, s.Insights)
				}
				return nil
			})
		},
	}
}

func newBackupRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [key]",
		Short: "Restore a snapshot into the current store",
		Long: `Restore a snapshot into the configured store, which must be empty.
Without a key the newest snapshot is restored. The key may be a full key,
a timestamp, or a unique prefix of either.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			if err := requireEmpty(cmd, a.repo); err != nil {
				return err
			}
			return a.withBackup(func(c *backup.Client) error {
				snap, err := c.Restore(cmd.Context(), a.repo, key)
				if err != nil {
					return fmt.Errorf("failed to restore snapshot: %w", err)
				}
				green.Fprintf(cmd.OutOrStdout(), "✓ Restored %s\n", snap.Key)
				fmt.Fprintf(cmd.OutOrStdout(), "  %d sessions, %d insights\n", snap.Sessions, snap.Insights)
				return nil
			})
		},
	}
}

func newBackupDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "delete <key>",
		Aliases:     []string{"rm"},
		Short:       "Delete a snapshot",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackup(func(c *backup.Client) error {
				if err := c.Delete(args[0]); err != nil {
					return fmt.Errorf("failed to delete snapshot: %w", err)
				}
				yellow.Fprintf(cmd.OutOrStdout(), "✗ Deleted %s\n", args[0])
				return nil
			})
		},
	}
}
