package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// CLISessionID is the session key the command line stores its login under.
const CLISessionID = "cli"

// WebSessionPrefix marks the session ids issued by the browser login.
const WebSessionPrefix = "web:"

// NewWebSessionID returns a fresh browser session id.
func NewWebSessionID() string {
	return WebSessionPrefix + uuid.NewString()
}

// IsWebSessionID reports whether id was issued by the browser login.
func IsWebSessionID(id string) bool {
	return strings.HasPrefix(id, WebSessionPrefix) && len(id) > len(WebSessionPrefix)
}

type oidcDiscovery struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	DeviceAuthEndpoint    string `json:"device_authorization_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
}

// OAuthProvider is the hosted identity provider: OIDC login, tokens kept in a
// TokenStore, silent refresh through oauth2.TokenSource. The issuer's
// endpoints are discovered on first use and kept once found.
type OAuthProvider struct {
	cfg        OIDCConfig
	store      *TokenStore
	httpClient *http.Client

	mu          sync.Mutex
	config      *oauth2.Config
	userinfoURL string
}

// NewOAuthProvider returns a provider for the issuer in cfg. No request is
// made until a login or token lookup needs the issuer.
func NewOAuthProvider(cfg OIDCConfig, store *TokenStore) (*OAuthProvider, error) {
	if cfg.Issuer == "" || cfg.ClientID == "" {
		return nil, errors.New("oidc issuer and client id are required")
	}
	return &OAuthProvider{
		cfg:        cfg,
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func newOAuthProvider(cfg OIDCConfig, d *oidcDiscovery, store *TokenStore, client *http.Client) *OAuthProvider {
	p := &OAuthProvider{cfg: cfg, store: store, httpClient: client}
	p.apply(d)
	return p
}

func (p *OAuthProvider) apply(d *oidcDiscovery) {
	p.config = &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		RedirectURL:  p.cfg.RedirectURL,
		Scopes:       p.cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:       d.AuthorizationEndpoint,
			TokenURL:      d.TokenEndpoint,
			DeviceAuthURL: d.DeviceAuthEndpoint,
		},
	}
	p.userinfoURL = d.UserinfoEndpoint
}

// Discover resolves the issuer's endpoints. A failed lookup is retried on the
// next call.
func (p *OAuthProvider) Discover(ctx context.Context) (*oauth2.Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.config != nil {
		return p.config, nil
	}
	d, err := fetchOIDCDiscovery(ctx, p.httpClient, p.cfg.Issuer)
	if err != nil {
		return nil, err
	}
	p.apply(d)
	return p.config, nil
}

// Session loads the session bound to ctx. No id or no record means no session.
func (p *OAuthProvider) Session(ctx context.Context) (*Session, error) {
	id := SessionIDFromContext(ctx)
	if id == "" {
		return nil, nil
	}
	rec, err := p.store.Load(ctx, id)
	if errors.Is(err, ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user := rec.User
	return &Session{ID: rec.ID, User: &user, ExpiresAt: rec.Expiry}, nil
}

// AccessToken returns a valid access token for the bound session, refreshing
// and persisting it when the stored one has expired.
func (p *OAuthProvider) AccessToken(ctx context.Context) (string, error) {
	id := SessionIDFromContext(ctx)
	if id == "" {
		return "", ErrNoSession
	}
	rec, err := p.store.Load(ctx, id)
	if err != nil {
		return "", err
	}
	conf, err := p.Discover(ctx)
	if err != nil {
		return "", err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := conf.TokenSource(ctx, rec.Token()).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && (re.ErrorCode == "invalid_grant" || (re.Response != nil && re.Response.StatusCode == http.StatusUnauthorized)) {
			return "", errors.Wrap(ErrAccessTokenExpired, re.ErrorCode)
		}
		if rec.RefreshToken == "" && !rec.Expiry.IsZero() && time.Now().After(rec.Expiry) {
			return "", ErrAccessTokenExpired
		}
		return "", errors.Wrap(err, "failed to obtain access token")
	}

	if tok.AccessToken != rec.AccessToken {
		rec.SetToken(tok)
		if err := p.store.Save(ctx, rec); err != nil {
			LogWarn("Failed to persist refreshed token: %v", err)
		}
	}
	return tok.AccessToken, nil
}

// AuthCodeURL starts the browser login.
func (p *OAuthProvider) AuthCodeURL(ctx context.Context, state string) (string, error) {
	conf, err := p.Discover(ctx)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(state, p.authOptions()...), nil
}

// Exchange finishes the browser login and stores a new session under a fresh
// web session id.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*StoredSession, error) {
	conf, err := p.Discover(ctx)
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "code exchange failed")
	}
	return p.persist(ctx, NewWebSessionID(), tok)
}

// DeviceLogin runs the OAuth device flow, printing instructions to w, and stores
// the result under CLISessionID.
func (p *OAuthProvider) DeviceLogin(ctx context.Context, w io.Writer) (*StoredSession, error) {
	conf, err := p.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if conf.Endpoint.DeviceAuthURL == "" {
		return nil, errors.New("issuer does not expose a device authorization endpoint")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	da, err := conf.DeviceAuth(ctx, p.authOptions()...)
	if err != nil {
		return nil, errors.Wrap(err, "device authorization failed")
	}

	if da.VerificationURIComplete != "" {
		fmt.Fprintf(w, "Open this URL in your browser:\n  %s\n\n", da.VerificationURIComplete)
	} else {
		fmt.Fprintf(w, "Open this URL in your browser:\n  %s\n", da.VerificationURI)
		fmt.Fprintf(w, "Enter this code:\n  %s\n\n", da.UserCode)
	}
	fmt.Fprintln(w, "Waiting for authorization...")

	tok, err := conf.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, errors.Wrap(err, "device login failed")
	}
	return p.persist(ctx, CLISessionID, tok)
}

// Logout forgets the session bound to ctx.
func (p *OAuthProvider) Logout(ctx context.Context) error {
	id := SessionIDFromContext(ctx)
	if id == "" {
		return nil
	}
	return p.store.Delete(ctx, id)
}

func (p *OAuthProvider) persist(ctx context.Context, id string, tok *oauth2.Token) (*StoredSession, error) {
	user, err := p.fetchUserinfo(ctx, tok)
	if err != nil {
		return nil, err
	}
	rec := &StoredSession{ID: id, User: *user}
	rec.SetToken(tok)
	if rec.TokenType == "" {
		rec.TokenType = "Bearer"
	}
	if err := p.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (p *OAuthProvider) fetchUserinfo(ctx context.Context, tok *oauth2.Token) (*User, error) {
	p.mu.Lock()
	userinfoURL := p.userinfoURL
	p.mu.Unlock()
	if userinfoURL == "" {
		return &User{Sub: "unknown"}, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	tok.SetAuthHeader(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "userinfo request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Wrap(err, "invalid userinfo response")
	}
	return &user, nil
}

func (p *OAuthProvider) authOptions() []oauth2.AuthCodeOption {
	if p.cfg.Audience == "" {
		return nil
	}
	return []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("audience", p.cfg.Audience)}
}

func fetchOIDCDiscovery(ctx context.Context, client *http.Client, issuer string) (*oidcDiscovery, error) {
	issuer = strings.TrimSuffix(issuer, "/")
	wellKnown := issuer + "/.well-known/openid-configuration"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnown, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "oidc discovery request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("oidc discovery failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out oidcDiscovery
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "invalid oidc discovery response")
	}
	if out.TokenEndpoint == "" {
		return nil, errors.New("oidc discovery missing token_endpoint")
	}
	return &out, nil
}
