package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurubase/gurubase-cli/testutil"
)

type fakeIssuer struct {
	*httptest.Server
	refreshes    atomic.Int32
	discoveries  atomic.Int32
	rejectGrants bool
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	fi := &fakeIssuer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		fi.discoveries.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                        fi.URL,
			"authorization_endpoint":        fi.URL + "/authorize",
			"token_endpoint":                fi.URL + "/oauth/token",
			"device_authorization_endpoint": fi.URL + "/oauth/device/code",
			"userinfo_endpoint":             fi.URL + "/userinfo",
		})
	})
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			_, _ = w.Write([]byte(`{"access_token":"access-1","refresh_token":"refresh-1","token_type":"Bearer","expires_in":3600}`))
		case "refresh_token":
			if fi.rejectGrants {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Unknown or invalid refresh token."}`))
				return
			}
			fi.refreshes.Add(1)
			_, _ = w.Write([]byte(`{"access_token":"access-2","token_type":"Bearer","expires_in":3600}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"unsupported_grant_type"}`))
		}
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"sub":"auth0|42","email":"ada@example.com","name":"Ada"}`))
	})
	fi.Server = httptest.NewServer(mux)
	t.Cleanup(fi.Close)
	return fi
}

func newTestProvider(t *testing.T, fi *fakeIssuer) (*OAuthProvider, *TokenStore) {
	t.Helper()
	store, err := NewTokenStore(testutil.CreateInMemoryDB(t))
	require.NoError(t, err)

	p, err := NewOAuthProvider(OIDCConfig{
		Issuer:      fi.URL + "/",
		ClientID:    "client",
		RedirectURL: "http://localhost:8029/api/auth/callback",
		Audience:    "https://api.gurubase.io",
		Scopes:      []string{"openid", "offline_access"},
	}, store)
	require.NoError(t, err)
	return p, store
}

func TestOAuthProvider_Discovery(t *testing.T) {
	fi := newFakeIssuer(t)
	p, _ := newTestProvider(t, fi)

	assert.Zero(t, fi.discoveries.Load(), "discovery waits for first use")

	authURL, err := p.AuthCodeURL(context.Background(), "state-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(authURL, fi.URL+"/authorize?"))
	assert.Contains(t, authURL, "state=state-1")
	assert.Contains(t, authURL, "audience=https%3A%2F%2Fapi.gurubase.io")

	_, err = p.AuthCodeURL(context.Background(), "state-2")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fi.discoveries.Load())

	_, err = NewOAuthProvider(OIDCConfig{}, nil)
	assert.Error(t, err)
}

func TestOAuthProvider_IssuerUnreachable(t *testing.T) {
	store, err := NewTokenStore(testutil.CreateInMemoryDB(t))
	require.NoError(t, err)
	p, err := NewOAuthProvider(OIDCConfig{Issuer: "http://127.0.0.1:1", ClientID: "client"}, store)
	require.NoError(t, err)

	ctx := WithSessionID(context.Background(), CLISessionID)
	require.NoError(t, store.Save(ctx, &StoredSession{
		ID:          CLISessionID,
		User:        User{Sub: "auth0|7", Email: "grace@example.com"},
		AccessToken: "stored",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}))

	sess, err := p.Session(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "grace@example.com", sess.User.Email)

	_, err = p.AccessToken(ctx)
	assert.ErrorContains(t, err, "oidc discovery request failed")

	_, err = p.AuthCodeURL(context.Background(), "s")
	assert.Error(t, err)
}

func TestOAuthProvider_ExchangeAndSession(t *testing.T) {
	fi := newFakeIssuer(t)
	p, store := newTestProvider(t, fi)
	ctx := context.Background()

	rec, err := p.Exchange(ctx, "code-1")
	require.NoError(t, err)
	assert.True(t, IsWebSessionID(rec.ID), rec.ID)
	assert.Equal(t, "ada@example.com", rec.User.Email)
	assert.Equal(t, "refresh-1", rec.RefreshToken)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	bound := WithSessionID(ctx, rec.ID)
	sess, err := p.Session(bound)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "Ada", sess.User.Name)

	token, err := p.AccessToken(bound)
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.Zero(t, fi.refreshes.Load(), "a valid token is not refreshed")

	require.NoError(t, p.Logout(bound))
	sess, err = p.Session(bound)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestOAuthProvider_NoSession(t *testing.T) {
	fi := newFakeIssuer(t)
	p, _ := newTestProvider(t, fi)
	ctx := context.Background()

	sess, err := p.Session(ctx)
	assert.NoError(t, err)
	assert.Nil(t, sess)

	sess, err = p.Session(WithSessionID(ctx, "missing"))
	assert.NoError(t, err)
	assert.Nil(t, sess)

	_, err = p.AccessToken(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, p.Logout(ctx))
}

func TestOAuthProvider_Refresh(t *testing.T) {
	fi := newFakeIssuer(t)
	p, store := newTestProvider(t, fi)
	ctx := WithSessionID(context.Background(), CLISessionID)

	require.NoError(t, store.Save(ctx, &StoredSession{
		ID:           CLISessionID,
		User:         User{Sub: "auth0|42"},
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	token, err := p.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)
	assert.Equal(t, int32(1), fi.refreshes.Load())

	rec, err := store.Load(ctx, CLISessionID)
	require.NoError(t, err)
	assert.Equal(t, "access-2", rec.AccessToken, "refreshed token is persisted")
	assert.Equal(t, "refresh-1", rec.RefreshToken, "refresh token survives a response without one")
}

func TestOAuthProvider_RefreshRejected(t *testing.T) {
	fi := newFakeIssuer(t)
	fi.rejectGrants = true
	p, store := newTestProvider(t, fi)
	ctx := WithSessionID(context.Background(), CLISessionID)

	require.NoError(t, store.Save(ctx, &StoredSession{
		ID:           CLISessionID,
		AccessToken:  "stale",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	_, err := p.AccessToken(ctx)
	assert.ErrorIs(t, err, ErrAccessTokenExpired)
	assert.True(t, IsTokenExpired(err))
}

func TestOAuthProvider_ExpiredWithoutRefreshToken(t *testing.T) {
	fi := newFakeIssuer(t)
	p, store := newTestProvider(t, fi)
	ctx := WithSessionID(context.Background(), CLISessionID)

	require.NoError(t, store.Save(ctx, &StoredSession{
		ID:          CLISessionID,
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Hour),
	}))

	_, err := p.AccessToken(ctx)
	assert.ErrorIs(t, err, ErrAccessTokenExpired)
}

func TestOAuthProvider_DeviceLoginUnsupported(t *testing.T) {
	p := newOAuthProvider(OIDCConfig{ClientID: "c"}, &oidcDiscovery{TokenEndpoint: "http://x/token"}, nil, http.DefaultClient)
	_, err := p.DeviceLogin(context.Background(), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestWebSessionID(t *testing.T) {
	id := NewWebSessionID()
	assert.True(t, IsWebSessionID(id))
	assert.NotEqual(t, id, NewWebSessionID())

	assert.False(t, IsWebSessionID(CLISessionID))
	assert.False(t, IsWebSessionID(WebSessionPrefix))
	assert.False(t, IsWebSessionID("sess-1"))
}
