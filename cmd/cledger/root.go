// ABOUTME: Root Cobra command for the cledger CLI.
// ABOUTME: Builds config, logger, repository, and assembler once and hands them to every command.
package main

import (
	"fmt"
	"io"
	"time"

	"github.com/harperreed/cledger/internal/analytics"
	"github.com/harperreed/cledger/internal/backup"
	"github.com/harperreed/cledger/internal/config"
	"github.com/harperreed/cledger/internal/logging"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Command annotations read by the root pre-run hook.
const (
	// annotationNoStore skips opening the repository.
	annotationNoStore = "cledger/no-store"
	// annotationConsoleLog adds a console log core on stderr.
	annotationConsoleLog = "cledger/console-log"
)

// app holds what the root command constructs for its subcommands.
type app struct {
	cfgPath    string
	now        func() time.Time
	openBackup func() (*backup.Client, error)

	cfg       *config.Config
	logger    *zap.Logger
	repo      storage.Repository
	assembler *analytics.Assembler
	registry  *prometheus.Registry
}

func newApp() *app {
	return &app{now: models.Today, openBackup: backup.Open}
}

func newRootCmd() *cobra.Command {
	return newRootCmdFor(newApp())
}

func newRootCmdFor(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cledger",
		Short: "Climbing training log",
		Long: `cledger is a training log for climbers.

WHAT IT TRACKS:

  Sessions   date, types (boulder, routes, board, hangboard, strength, prehab, other),
             intensity 1-10, performance, productivity, duration, grade, venue, notes
  Injuries   body location, severity 1-5, and a note, attached to a session
  Insights   free-text coaching notes, optionally pinned

QUICK START:

  $ cledger session add --type boulder --intensity 7 --duration 90
  $ cledger session add --type hangboard --injury finger:2:tweaky
  $ cledger session list                # Recent sessions
  $ cledger calendar                    # Week-by-week grid
  $ cledger analytics                   # Load, hard sessions, rest, trends
  $ cledger insight add "Deload every fourth week" --pin

SERVER AND MCP:

  $ cledger serve                       # HTTP API for the web client
  $ cledger mcp                         # MCP server over stdio
  $ cledger mcp --remote https://...    # MCP server backed by a running API

  {
    "mcpServers": {
      "cledger": { "command": "cledger", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  SQLite at ~/.local/share/cledger/cledger.db by default, or Postgres with
  backend: postgres and database_url in ~/.config/cledger/config.yaml.
  Every setting can be overridden with CLEDGER_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default $XDG_CONFIG_HOME/cledger/config.yaml)")

	rootCmd.AddCommand(
		newSessionCmd(a),
		newInjuryCmd(a),
		newInsightCmd(a),
		newAnalyticsCmd(a),
		newSummaryCmd(a),
		newCalendarCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newMigrateCmd(a),
		newBackupCmd(a),
		newPasswdCmd(a),
		newInstallSkillCmd(a),
	)
	return rootCmd
}

// setup loads config and builds the logger, then opens storage unless the
// command opts out.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.cfgPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	var console io.Writer
	if cmd.Annotations[annotationConsoleLog] == "true" {
		console = cmd.ErrOrStderr()
	}
	a.logger, err = logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.GetLogFile(),
		Console: console,
	})
	if err != nil {
		return err
	}
	a.logger.Debug("command starting", zap.String("command", cmd.CommandPath()))

	if cmd.Annotations[annotationNoStore] == "true" {
		return nil
	}
	return a.openStore(cmd)
}

// openStore opens the configured backend and builds the analytics assembler.
func (a *app) openStore(cmd *cobra.Command) error {
	repo, err := a.cfg.OpenStorage(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.repo = repo

	a.registry = prometheus.NewRegistry()
	a.assembler = analytics.NewAssembler(repo,
		analytics.WithTimeout(a.cfg.Analytics.Timeout),
		analytics.WithClock(a.now),
		analytics.WithLogger(a.logger),
		analytics.WithMetrics(analytics.NewMetrics(a.registry)),
	)
	return nil
}

func (a *app) close() error {
	var err error
	if a.repo != nil {
		err = a.repo.Close()
		a.repo = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

// today returns the current calendar day as YYYY-MM-DD.
func (a *app) today() string {
	return models.FormatDate(a.now())
}
