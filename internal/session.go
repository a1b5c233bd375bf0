package internal

import (
	"context"
	"time"
)

// User is the identity attached to a hosted session.
type User struct {
	Sub     string `json:"sub" yaml:"sub"`
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Picture string `json:"picture,omitempty" yaml:"picture,omitempty"`
}

// Session is what the identity provider knows about the current caller.
type Session struct {
	ID        string    `json:"id"`
	User      *User     `json:"user,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// IdentityProvider is the external authentication boundary.
type IdentityProvider interface {
	// Session returns the caller's session, or nil when there is none.
	Session(ctx context.Context) (*Session, error)
	// AccessToken returns a usable bearer token, refreshing it if needed.
	AccessToken(ctx context.Context) (string, error)
}

// SessionResolver answers "who is calling" for the dispatcher and actions.
// It never caches: every call goes back to the provider.
type SessionResolver struct {
	selfHosted bool
	provider   IdentityProvider
}

// NewSessionResolver creates a resolver. provider may be nil when no identity
// provider is configured; every lookup then reports no session.
func NewSessionResolver(cfg *Config, provider IdentityProvider) *SessionResolver {
	return &SessionResolver{
		selfHosted: cfg.SelfHosted,
		provider:   provider,
	}
}

// SelfHosted reports the deployment mode the resolver was built with.
func (r *SessionResolver) SelfHosted() bool {
	return r.selfHosted
}

// UserSession returns the current session. Self-hosted deployments have no
// users, so the provider is not consulted at all.
func (r *SessionResolver) UserSession(ctx context.Context) (*Session, error) {
	if r.selfHosted || r.provider == nil {
		return nil, nil
	}
	return r.provider.Session(ctx)
}

// HasUser reports whether an authenticated user is present.
func (r *SessionResolver) HasUser(ctx context.Context) (bool, error) {
	s, err := r.UserSession(ctx)
	if err != nil {
		return false, err
	}
	return s != nil && s.User != nil, nil
}

// AccessToken fetches a fresh token from the provider.
func (r *SessionResolver) AccessToken(ctx context.Context) (string, error) {
	if r.provider == nil {
		return "", ErrNoSession
	}
	return r.provider.AccessToken(ctx)
}

// AuthTokenForStream returns the caller's access token for streaming clients,
// or "" when there is no user or the token cannot be obtained.
func (r *SessionResolver) AuthTokenForStream(ctx context.Context) string {
	ok, err := r.HasUser(ctx)
	if err != nil {
		LogError("Error getting auth token: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	token, err := r.AccessToken(ctx)
	if err != nil {
		LogError("Error getting auth token: %v", err)
		return ""
	}
	return token
}

// CurrentUser returns the signed-in user, or nil.
func (r *SessionResolver) CurrentUser(ctx context.Context) *User {
	s, err := r.UserSession(ctx)
	if err != nil {
		LogError("Error fetching user data: %v", err)
		return nil
	}
	if s == nil {
		return nil
	}
	return s.User
}

type sessionIDKey struct{}

// WithSessionID binds a session id (cookie value, CLI profile) to ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext returns the bound session id, or "".
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}
