package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gurubase/gurubase-cli/internal"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that gurubase can reach and talk to the backend",
	Long: `Check the health of the client by verifying:
  • Configuration (backend URL, deployment mode)
  • Backend reachability
  • Authentication (identity provider and stored login)
  • Response cache

This command is useful for debugging connection issues, especially in CI/CD environments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, sectionStyle.Render("🔍 Gurubase Health Check"))
		fmt.Fprintln(w)

		// Step 1: Configuration
		fmt.Fprintln(w, infoStyle.Render("Step 1: Loading configuration..."))
		ctx := sessionContext(cmd)
		a, err := newApp()
		if err != nil {
			fmt.Fprintln(w, errorStyle.Render("❌ Invalid configuration:"), err)
			return fmt.Errorf("healthcheck failed")
		}
		defer a.Close()
		fmt.Fprintln(w, successStyle.Render("✅ Configuration loaded"))
		if verbose {
			fmt.Fprintf(w, "   Backend: %s\n", a.cfg.BackendURL)
			if a.cfg.SelfHosted {
				fmt.Fprintln(w, "   Deployment: self-hosted")
			} else {
				fmt.Fprintln(w, "   Deployment: hosted")
			}
			if file := v.ConfigFileUsed(); file != "" {
				fmt.Fprintf(w, "   Config file: %s\n", file)
			}
		}
		fmt.Fprintln(w)

		// Step 2: Backend
		fmt.Fprintln(w, infoStyle.Render("Step 2: Contacting backend..."))
		if !checkBackend(ctx, w, a) {
			fmt.Fprintln(w)
			fmt.Fprintln(w, errorStyle.Render("❌ Health check failed: backend not reachable"))
			return fmt.Errorf("healthcheck failed")
		}
		fmt.Fprintln(w)

		// Step 3: Authentication
		fmt.Fprintln(w, infoStyle.Render("Step 3: Checking authentication..."))
		checkAuth(ctx, w, a)
		fmt.Fprintln(w)

		// Step 4: Cache
		fmt.Fprintln(w, infoStyle.Render("Step 4: Checking response cache..."))
		checkCache(w, a)
		fmt.Fprintln(w)

		fmt.Fprintln(w, successStyle.Render("✅ Health check passed"))
		return nil
	},
}

func checkBackend(ctx context.Context, w io.Writer, a *app) bool {
	r := a.catalog.GuruTypes(ctx)
	switch r.Outcome() {
	case internal.OutcomeOK:
		fmt.Fprintln(w, successStyle.Render("✅ Backend reachable"))
		if verbose {
			fmt.Fprintf(w, "   Gurus listed: %d\n", len(r.Value))
		}
		return true
	case internal.OutcomeEmpty:
		fmt.Fprintln(w, successStyle.Render("✅ Backend reachable (no gurus)"))
		return true
	case internal.OutcomeFailed:
		fmt.Fprintln(w, errorStyle.Render("❌ Backend request failed:"), r.Err.Message)
	default:
		fmt.Fprintln(w, errorStyle.Render("❌ Backend asked for a login on a public endpoint"))
	}
	return false
}

func checkAuth(ctx context.Context, w io.Writer, a *app) {
	switch {
	case a.cfg.SelfHosted:
		fmt.Fprintln(w, successStyle.Render("✅ Self-hosted deployment, no login needed"))
		return
	case a.provider == nil:
		fmt.Fprintln(w, warningStyle.Render("⚠️  No identity provider configured"))
		if verbose {
			fmt.Fprintln(w, "   Set --oidc-issuer and --oidc-client-id to sign in")
		}
		return
	}

	if _, err := a.provider.Discover(ctx); err != nil {
		fmt.Fprintln(w, warningStyle.Render("⚠️  Identity provider unreachable"))
		if verbose {
			fmt.Fprintf(w, "   %v\n", err)
		}
	}

	sess, err := a.provider.Session(ctx)
	if err != nil || sess == nil {
		fmt.Fprintln(w, warningStyle.Render("⚠️  Not signed in (run `gurubase login`)"))
	} else {
		fmt.Fprintln(w, successStyle.Render("✅ Signed in"))
		if verbose && sess.User != nil {
			fmt.Fprintf(w, "   User: %s\n", displayUser(sess.User))
		}
	}
	if verbose && a.store != nil {
		if n, err := a.store.Count(ctx); err == nil {
			fmt.Fprintf(w, "   Stored sessions: %d\n", n)
		}
	}
}

func checkCache(w io.Writer, a *app) {
	if a.cache == nil {
		fmt.Fprintln(w, warningStyle.Render("⚠️  Response cache disabled"))
		return
	}
	index, err := a.cache.LoadIndex()
	switch {
	case os.IsNotExist(err):
		fmt.Fprintln(w, successStyle.Render("✅ Response cache empty"))
	case err != nil:
		fmt.Fprintln(w, warningStyle.Render("⚠️  Response cache unreadable:"), err)
	default:
		fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("✅ Response cache holds %d entries", len(index.Entries))))
	}
	if verbose {
		fmt.Fprintf(w, "   Directory: %s\n", a.cache.GetCacheDir())
	}
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
