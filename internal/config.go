package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DeploymentSelfHosted is the node-env value that switches off per-user auth.
	DeploymentSelfHosted = "selfhosted"

	// DefaultLoginPath is where unauthenticated callers are sent.
	DefaultLoginPath = "/api/auth/login"

	defaultHTTPTimeout = 60 * time.Second
)

// Config holds everything the dispatcher, identity provider and surfaces need.
// It is built once at startup and injected; nothing reads the environment per call.
type Config struct {
	BackendURL       string
	BackendAuthToken string
	SelfHosted       bool
	LoginPath        string
	HTTPTimeout      time.Duration

	CacheDir string
	TokenDB  string

	OIDC OIDCConfig

	Listen        string
	PublicBaseURL string
}

// OIDCConfig configures the hosted identity provider.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Audience     string
	Scopes       []string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		BackendURL:  "http://localhost:8018/api/v1",
		LoginPath:   DefaultLoginPath,
		HTTPTimeout: defaultHTTPTimeout,
		CacheDir:    filepath.Join(home, ".gurubase", "cache"),
		TokenDB:     filepath.Join(home, ".gurubase", "sessions.db"),
		OIDC: OIDCConfig{
			Scopes: []string{"openid", "profile", "email", "offline_access"},
		},
		Listen:        ":8029",
		PublicBaseURL: "http://localhost:8029",
	}
}

// LoadConfig reads the configuration out of a viper instance.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	setString(v, "backend-url", &cfg.BackendURL)
	setString(v, "backend-auth-token", &cfg.BackendAuthToken)
	setString(v, "login-path", &cfg.LoginPath)
	setString(v, "cache-dir", &cfg.CacheDir)
	setString(v, "token-db", &cfg.TokenDB)
	setString(v, "listen", &cfg.Listen)
	setString(v, "public-base-url", &cfg.PublicBaseURL)
	setString(v, "oidc-issuer", &cfg.OIDC.Issuer)
	setString(v, "oidc-client-id", &cfg.OIDC.ClientID)
	setString(v, "oidc-client-secret", &cfg.OIDC.ClientSecret)
	setString(v, "oidc-redirect-url", &cfg.OIDC.RedirectURL)
	setString(v, "oidc-audience", &cfg.OIDC.Audience)

	if scopes := v.GetStringSlice("oidc-scopes"); len(scopes) > 0 {
		cfg.OIDC.Scopes = scopes
	}
	if v.IsSet("http-timeout") {
		cfg.HTTPTimeout = v.GetDuration("http-timeout")
	}

	cfg.SelfHosted = v.GetBool("self-hosted") ||
		strings.EqualFold(strings.TrimSpace(v.GetString("node-env")), DeploymentSelfHosted)

	cfg.BackendURL = strings.TrimSuffix(cfg.BackendURL, "/")
	if cfg.OIDC.RedirectURL == "" {
		cfg.OIDC.RedirectURL = strings.TrimSuffix(cfg.PublicBaseURL, "/") + "/api/auth/callback"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every surface depends on.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend-url is required")
	}
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("backend-url must be an http(s) URL, got %q", c.BackendURL)
	}
	if c.LoginPath == "" {
		return fmt.Errorf("login-path must not be empty")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http-timeout must not be negative")
	}
	return nil
}

// Endpoint joins a backend path onto the configured base URL.
func (c *Config) Endpoint(format string, args ...interface{}) string {
	path := fmt.Sprintf(format, args...)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BackendURL + path
}

// HasOIDC reports whether a hosted identity provider is configured.
func (c *Config) HasOIDC() bool {
	return c.OIDC.Issuer != "" && c.OIDC.ClientID != ""
}

func setString(v *viper.Viper, key string, dst *string) {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		*dst = s
	}
}
