// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs over stdio against local storage or a remote cledger API.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/cledger/internal/client"
	"github.com/harperreed/cledger/internal/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMCPCmd(a *app) *cobra.Command {
	var (
		remote   string
		password string
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long: `Start the Model Context Protocol (MCP) server for AI coach integration.
The server communicates via stdin/stdout; logs go only to the log file.

By default the tools read and write local storage. With --remote they go
through a running 'cledger serve' instead, logging in once with the
configured password (remote.password or CLEDGER_REMOTE_PASSWORD).

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "cledger": {
        "command": "cledger",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  list_sessions         List sessions, optionally by date range
  get_session           Get one session with injuries
  list_injuries         List injuries, optionally by date range
  get_analytics         Load, counts, rest, pain flags, and trends
  log_session           Log a new session
  log_injury            Add an injury to a session
  list_insights         List coaching insights
  add_insight           Add a coaching insight
  update_insight        Replace an insight
  get_training_summary  Two-week coaching summary

AVAILABLE RESOURCES:

  cledger://sessions/recent   The 10 most recent sessions
  cledger://analytics         Current analytics snapshot
  cledger://insights          All insights`,
		Annotations: map[string]string{annotationNoStore: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("remote") {
				remote = a.cfg.Remote.URL
			}
			if !cmd.Flags().Changed("password") {
				password = a.cfg.Remote.Password
			}

			var ledger mcp.Ledger
			if remote != "" {
				a.logger.Info("mcp using remote api", zap.String("url", remote))
				ledger = client.New(remote, password)
			} else {
				if err := a.openStore(cmd); err != nil {
					return err
				}
				ledger = mcp.NewLocalLedger(a.repo, a.assembler)
			}

			server, err := mcp.NewServer(ledger, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "base URL of a running cledger API")
	cmd.Flags().StringVar(&password, "password", "", "API password for --remote")
	return cmd
}
