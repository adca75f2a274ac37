// ABOUTME: CLI command for running the HTTP API.
// ABOUTME: Serves the training log to the web client until interrupted.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/cledger/internal/api"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API used by the web client and by 'cledger mcp --remote'.

AUTHENTICATION:

  When auth.password_hash is configured, POST /api/auth/login exchanges the
  password for a bearer token and every other /api route requires it. Set the
  hash with 'cledger passwd --save'. Without a hash the API is open, which is
  only appropriate on localhost.

ENDPOINTS:

  /api/sessions, /api/sessions/{id}, /api/sessions/weeks, /api/sessions/calendar
  /api/injuries, /api/injury-locations, /api/venues
  /api/analytics, /api/summary
  /api/insights, /api/insights/{id}
  /healthz, /metrics`,
		Annotations: map[string]string{annotationConsoleLog: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Server.Addr
			}

			opts := api.Options{
				Repo:           a.repo,
				Assembler:      a.assembler,
				Logger:         a.logger,
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				Registry:       a.registry,
			}
			if a.cfg.Auth.PasswordHash != "" {
				owner, err := a.cfg.Owner()
				if err != nil {
					return err
				}
				auth, err := api.NewAuthenticator(a.cfg.Auth.PasswordHash, a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL, owner)
				if err != nil {
					return err
				}
				opts.Auth = auth
			} else {
				yellow.Fprintln(cmd.ErrOrStderr(), "⚠ No password configured, the API is open")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return api.New(opts).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
	return cmd
}
