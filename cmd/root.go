package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gurubase/gurubase-cli/internal"
)

var (
	verbose      bool
	cfgFile      string
	outputFormat string
	version      string = "dev"
	commit       string = "unknown"
	date         string = "unknown"

	v = viper.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gurubase",
	Short: "Ask and manage Gurubase gurus from the command line",
	Long: `A command line client and actions gateway for a Gurubase backend.

It talks to the same backend endpoints as the Gurubase web frontend: signed-in
calls carry your bearer token, anonymous calls use the deployment's service
token, and self-hosted deployments skip user authentication entirely.

Features:
  • Browse gurus and ask them questions
  • Manage your gurus, their data sources and integrations
  • Manage API keys and deployment settings
  • Serve the action catalog over HTTP (gurubase serve)
  • Output as JSON, JSONL, YAML or Markdown

Quick Start:
  gurubase login                          # Sign in (hosted deployments)
  gurubase gurus list                     # List gurus
  gurubase ask golang "What is a goroutine?"
  gurubase --self-hosted settings show    # Talk to a self-hosted backend

Configuration is read from flags, GURUBASE_* environment variables and
~/.gurubase/config.yaml, in that order of precedence.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		if err := internal.InitLogger(internal.LogConfig{
			Level:  v.GetString("log-level"),
			Format: v.GetString("log-format"),
			File:   v.GetString("log-file"),
		}); err != nil {
			return err
		}
		if verbose {
			internal.SetVerbose(true)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	pf.StringVar(&cfgFile, "config", "", "Config file (default $HOME/.gurubase/config.yaml)")
	pf.StringVarP(&outputFormat, "format", "f", "", "Output format: json, jsonl, yaml, md (default: human readable)")
	pf.String("backend-url", "", "Gurubase backend API URL")
	pf.String("backend-auth-token", "", "Service token for anonymous backend calls")
	pf.Bool("self-hosted", false, "Talk to a self-hosted deployment (no user authentication)")
	pf.String("cache-dir", "", "Directory for cached backend responses")
	pf.Bool("no-cache", false, "Do not cache backend responses locally")
	pf.String("log-level", "", "Log level: error, warn, info, debug")
	pf.String("log-format", "text", "Log format: text or json")
	pf.String("log-file", "", "Also write logs to this file (rotated)")
	pf.String("oidc-issuer", "", "OIDC issuer URL of the hosted identity provider")
	pf.String("oidc-client-id", "", "OIDC client id")
	pf.String("oidc-client-secret", "", "OIDC client secret (gateway login only)")
	pf.String("oidc-audience", "", "API audience requested with the login")
	pf.String("token-db", "", "Path of the local session database")

	_ = v.BindPFlags(pf)

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initConfig layers the config file and GURUBASE_* environment under the flags.
func initConfig() error {
	v.SetEnvPrefix("GURUBASE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("node-env", "GURUBASE_NODE_ENV", "NODE_ENV")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".gurubase"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// app is everything a command needs to reach the backend.
type app struct {
	cfg      *internal.Config
	store    *internal.TokenStore
	provider *internal.OAuthProvider
	catalog  *internal.Catalog
	cache    *internal.ResponseCache
}

// newApp builds the catalog from the resolved configuration. The token store
// and identity provider exist only on hosted deployments with OIDC configured.
func newApp() (*app, error) {
	cfg, err := internal.LoadConfig(v)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	var provider internal.IdentityProvider
	if !cfg.SelfHosted && cfg.HasOIDC() {
		store, err := internal.OpenTokenStore(cfg.TokenDB)
		if err != nil {
			return nil, err
		}
		a.store = store
		p, err := internal.NewOAuthProvider(cfg.OIDC, store)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.provider = p
		provider = p
	} else if !cfg.SelfHosted {
		internal.LogDebug("No identity provider configured; signed-in actions will require login")
	}

	var opts []internal.DispatcherOption
	if cfg.CacheDir != "" && !v.GetBool("no-cache") {
		a.cache = internal.NewResponseCache(cfg.CacheDir)
		opts = append(opts, internal.WithResponseCache(a.cache))
	}

	resolver := internal.NewSessionResolver(cfg, provider)
	a.catalog = internal.NewCatalog(cfg, internal.NewDispatcher(cfg, resolver, opts...))
	return a, nil
}

// Close releases the token store.
func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			internal.LogWarn("Failed to close session store: %v", err)
		}
	}
}

// sessionContext binds the CLI login to the command's context.
func sessionContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return internal.WithSessionID(ctx, internal.CLISessionID)
}

// withApp runs fn with a freshly built app and the CLI session context.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := sessionContext(cmd)
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
