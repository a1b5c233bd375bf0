package internal

import (
	"context"
	"sync"
)

// FakeIdentityProvider is an in-memory IdentityProvider for tests. It counts
// every call so tests can assert the provider was or was not consulted.
type FakeIdentityProvider struct {
	mu sync.Mutex

	SessionValue *Session
	SessionErr   error
	Token        string
	TokenErr     error

	SessionCalls int
	TokenCalls   int
}

// NewFakeIdentityProvider returns a provider with a signed-in user holding token.
func NewFakeIdentityProvider(token string) *FakeIdentityProvider {
	return &FakeIdentityProvider{
		SessionValue: CreateTestSession("test-session"),
		Token:        token,
	}
}

// Session implements IdentityProvider.
func (f *FakeIdentityProvider) Session(ctx context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SessionCalls++
	return f.SessionValue, f.SessionErr
}

// AccessToken implements IdentityProvider.
func (f *FakeIdentityProvider) AccessToken(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TokenCalls++
	return f.Token, f.TokenErr
}

// Calls returns the number of Session and AccessToken calls so far.
func (f *FakeIdentityProvider) Calls() (sessions, tokens int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SessionCalls, f.TokenCalls
}

// CreateTestSession creates a session for a test user.
func CreateTestSession(id string) *Session {
	return &Session{
		ID: id,
		User: &User{
			Sub:   "auth0|" + id,
			Email: "test@example.com",
			Name:  "Test User",
		},
	}
}

// NewTestCatalog wires a catalog against backendURL with the given provider.
func NewTestCatalog(backendURL string, selfHosted bool, provider IdentityProvider) *Catalog {
	cfg := DefaultConfig()
	cfg.BackendURL = backendURL
	cfg.BackendAuthToken = "service-token"
	cfg.SelfHosted = selfHosted
	cfg.CacheDir = ""
	resolver := NewSessionResolver(cfg, provider)
	return NewCatalog(cfg, NewDispatcher(cfg, resolver))
}
