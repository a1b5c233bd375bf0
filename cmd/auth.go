package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gurubase/gurubase-cli/internal"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to a hosted Gurubase deployment",
	Long: `Sign in with the OAuth device flow. The login is stored in the local
session database and refreshed automatically.

Requires --oidc-issuer and --oidc-client-id (or GURUBASE_OIDC_ISSUER and
GURUBASE_OIDC_CLIENT_ID). Self-hosted deployments need no login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if a.cfg.SelfHosted {
				internal.PrintInfo("Self-hosted deployments do not use logins")
				return nil
			}
			if a.provider == nil {
				return fmt.Errorf("no identity provider configured: set oidc-issuer and oidc-client-id")
			}
			rec, err := a.provider.DeviceLogin(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf("Signed in as %s", displayUser(&rec.User)))
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored login",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if a.provider == nil {
				internal.PrintInfo("Not signed in")
				return nil
			}
			if err := a.provider.Logout(ctx); err != nil {
				return err
			}
			internal.PrintSuccess("Signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return render(cmd, a.catalog.CurrentUserData(ctx), func(w io.Writer, u *internal.User) error {
				_, err := fmt.Fprintln(w, displayUser(u))
				return err
			})
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the access token used for streaming answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			token := a.catalog.AuthTokenForStream(ctx)
			if token == "" {
				return &LoginRequiredError{Location: a.cfg.LoginPath}
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		})
	},
}

func displayUser(u *internal.User) string {
	switch {
	case u == nil:
		return "anonymous"
	case u.Name != "" && u.Email != "":
		return fmt.Sprintf("%s <%s>", u.Name, u.Email)
	case u.Email != "":
		return u.Email
	case u.Name != "":
		return u.Name
	default:
		return u.Sub
	}
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(tokenCmd)
}
