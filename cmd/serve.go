package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gurubase/gurubase-cli/internal"
	"github.com/gurubase/gurubase-cli/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the action catalog over HTTP",
	Long: `Run the actions gateway: every action is exposed under /api/actions with
the same result mapping the web frontend relies on. On hosted deployments the
gateway also serves the browser login flow under /api/auth and keeps sessions
in the local session database.

Endpoints:
  /health          liveness
  /metrics         Prometheus metrics
  /api/auth/*      login, callback, logout
  /api/actions/*   the action catalog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(cmd, func(_ context.Context, a *app) error {
			var auth server.Authenticator
			if a.provider != nil {
				auth = a.provider
			}
			if a.cfg.SelfHosted {
				internal.LogInfo("Self-hosted deployment: user authentication disabled")
			} else if auth == nil {
				internal.LogWarn("No identity provider configured: signed-in actions will redirect to %s", a.cfg.LoginPath)
			}
			return server.New(a.cfg, a.catalog, auth).Run(ctx)
		})
	},
}

func init() {
	serveCmd.Flags().String("listen", ":8029", "Address to listen on")
	serveCmd.Flags().String("public-base-url", "http://localhost:8029", "Public URL of the gateway (CORS origin and login callback)")
	serveCmd.Flags().String("oidc-redirect-url", "", "Login callback URL (default <public-base-url>/api/auth/callback)")

	_ = v.BindPFlags(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd)
}
