package internal

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurubase/gurubase-cli/testutil"
)

func newTestDispatcher(t *testing.T, selfHosted bool, provider IdentityProvider) (*Dispatcher, *testutil.FakeBackend) {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	cfg := DefaultConfig()
	cfg.BackendURL = fb.URL
	cfg.BackendAuthToken = "service-token"
	cfg.SelfHosted = selfHosted
	return NewDispatcher(cfg, NewSessionResolver(cfg, provider)), fb
}

func TestDispatcher_Authenticated_NoSession(t *testing.T) {
	provider := NewFakeIdentityProvider("tok")
	provider.SessionValue = nil
	d, fb := newTestDispatcher(t, false, provider)

	_, err := d.Authenticated(context.Background(), fb.URL+"/my_gurus/", RequestOptions{})

	loc, ok := AsRedirect(err)
	require.True(t, ok, "expected redirect, got %v", err)
	assert.Equal(t, DefaultLoginPath, loc)
	assert.Zero(t, fb.Count(), "no backend call without a session")
	_, tokens := provider.Calls()
	assert.Zero(t, tokens)
}

func TestDispatcher_Authenticated_BearerToken(t *testing.T) {
	provider := NewFakeIdentityProvider("user-token")
	d, fb := newTestDispatcher(t, false, provider)
	fb.JSON("GET", "/my_gurus/", 200, `[{"slug":"go"}]`)

	opts := RequestOptions{Header: http.Header{"Authorization": {"Bearer forged"}, "X-Extra": {"1"}}}
	var out []Object
	require.NoError(t, d.AuthenticatedJSON(context.Background(), fb.URL+"/my_gurus/", opts, &out))

	last := fb.Last(t)
	assert.Equal(t, "Bearer user-token", last.Header.Get("Authorization"), "caller cannot override the bearer token")
	assert.Equal(t, "1", last.Header.Get("X-Extra"))
	assert.Equal(t, "no-store", last.Header.Get("Cache-Control"))
	assert.NotEmpty(t, last.Header.Get("X-Request-ID"))
	assert.Equal(t, "go", out[0]["slug"])
	assert.Equal(t, "Bearer forged", opts.Header.Get("Authorization"), "caller headers are not mutated")
}

func TestDispatcher_Authenticated_RedirectStatuses(t *testing.T) {
	for _, status := range []int{401, 403} {
		d, fb := newTestDispatcher(t, false, NewFakeIdentityProvider("tok"))
		fb.JSON("GET", "/settings/", status, `{"msg":"no"}`)

		_, err := d.Authenticated(context.Background(), fb.URL+"/settings/", RequestOptions{})
		_, ok := AsRedirect(err)
		assert.True(t, ok, "status %d should redirect", status)
	}
}

func TestDispatcher_Authenticated_BackendError(t *testing.T) {
	d, fb := newTestDispatcher(t, false, NewFakeIdentityProvider("tok"))
	fb.JSON("GET", "/settings/", 500, `{"msg":"boom"}`)

	_, err := d.Authenticated(context.Background(), fb.URL+"/settings/", RequestOptions{})

	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 500, be.Status)
	assert.Equal(t, `{"msg":"boom"}`, be.Message, "authenticated path keeps the raw body")
}

func TestDispatcher_Authenticated_TokenExpired(t *testing.T) {
	provider := NewFakeIdentityProvider("")
	provider.TokenErr = ErrAccessTokenExpired
	d, fb := newTestDispatcher(t, false, provider)

	_, err := d.Authenticated(context.Background(), fb.URL+"/settings/", RequestOptions{})

	loc, ok := AsRedirect(err)
	require.True(t, ok)
	assert.Equal(t, DefaultLoginPath, loc)
	assert.Zero(t, fb.Count())
}

func TestDispatcher_Authenticated_SelfHosted(t *testing.T) {
	provider := NewFakeIdentityProvider("tok")
	d, fb := newTestDispatcher(t, true, provider)
	fb.JSON("GET", "/my_gurus/", 200, `[]`)

	_, err := d.Authenticated(context.Background(), fb.URL+"/my_gurus/", RequestOptions{Next: &NextOptions{Revalidate: 3600}})
	require.NoError(t, err)

	last := fb.Last(t)
	assert.Equal(t, "service-token", last.Header.Get("Authorization"))
	assert.Equal(t, "no-store", last.Header.Get("Cache-Control"), "self-hosted overrides revalidate hints")
	sessions, tokens := provider.Calls()
	assert.Zero(t, sessions)
	assert.Zero(t, tokens)
}

func TestDispatcher_Public_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "rate limited",
			status: 429,
			body:   `{"msg":"slow down"}`,
			check: func(t *testing.T, err error) {
				var he *HTTPError
				require.ErrorAs(t, err, &he)
				assert.Equal(t, KindRateLimited, he.Kind)
				assert.Equal(t, "Server api rate limiting reached!", he.Message)
			},
		},
		{
			name:   "reranker unavailable",
			status: 425,
			check: func(t *testing.T, err error) {
				var he *HTTPError
				require.ErrorAs(t, err, &he)
				assert.Equal(t, KindDependencyUnavailable, he.Kind)
				assert.Equal(t, "Reranker model is not available!", he.Message)
			},
		},
		{
			name:   "provider config defaults",
			status: 490,
			body:   `{}`,
			check: func(t *testing.T, err error) {
				var pe *ProviderConfigError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "Invalid AI model provider settings", pe.Message)
				assert.Equal(t, "openai", pe.Type)
				assert.Equal(t, "openai_key_invalid", pe.Reason)
				assert.Equal(t, 490, pe.Status)
			},
		},
		{
			name:   "provider config verbatim",
			status: 490,
			body:   `{"msg":"Bad Ollama URL","type":"ollama","reason":"ollama_unreachable"}`,
			check: func(t *testing.T, err error) {
				var pe *ProviderConfigError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "Bad Ollama URL", pe.Message)
				assert.Equal(t, "ollama", pe.Type)
				assert.Equal(t, "ollama_unreachable", pe.Reason)
			},
		},
		{
			name:   "msg extracted",
			status: 400,
			body:   `{"msg":"Guru type not found"}`,
			check: func(t *testing.T, err error) {
				var be *BackendError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, "Guru type not found", be.Message)
				assert.Equal(t, 400, be.Status)
			},
		},
		{
			name:   "generic message",
			status: 502,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				var be *BackendError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, "Request failed with status 502", be.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, fb := newTestDispatcher(t, false, nil)
			fb.JSON("GET", "/x/", tt.status, tt.body)

			_, err := d.Public(context.Background(), fb.URL+"/x/", RequestOptions{})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestDispatcher_Public_HeaderPrecedence(t *testing.T) {
	d, fb := newTestDispatcher(t, false, nil)
	fb.JSON("GET", "/x/", 200, `{}`)

	_, err := d.Public(context.Background(), fb.URL+"/x/", RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "service-token", fb.Last(t).Header.Get("Authorization"))

	_, err = d.Public(context.Background(), fb.URL+"/x/", RequestOptions{Header: http.Header{"Authorization": {"Bearer caller"}}})
	require.NoError(t, err)
	assert.Equal(t, "Bearer caller", fb.Last(t).Header.Get("Authorization"), "caller headers win on the public path")
}

func TestResolveCachePolicy(t *testing.T) {
	tests := []struct {
		name string
		opts RequestOptions
		want string
	}{
		{"default is no-store", RequestOptions{}, "no-store"},
		{"explicit no-store", RequestOptions{Cache: CacheNoStore}, "no-store"},
		{"other directive", RequestOptions{Cache: "default"}, ""},
		{"next wins", RequestOptions{Cache: CacheNoStore, Next: &NextOptions{Revalidate: 10}}, "max-age=10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			resolveCachePolicy(tt.opts).apply(h)
			assert.Equal(t, tt.want, h.Get("Cache-Control"))
		})
	}
}

func TestDispatcher_ResponseCache(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	cfg := DefaultConfig()
	cfg.BackendURL = fb.URL
	cache := NewResponseCache(testutil.CreateTempDir(t))
	d := NewDispatcher(cfg, NewSessionResolver(cfg, nil), WithResponseCache(cache))
	fb.JSON("GET", "/guru_types/", 200, `[{"slug":"go"}]`)

	opts := RequestOptions{Next: &NextOptions{Revalidate: 60}}
	first, err := d.Public(context.Background(), fb.URL+"/guru_types/", opts)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := d.Public(context.Background(), fb.URL+"/guru_types/", opts)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, 1, fb.Count())

	_, err = d.Public(context.Background(), fb.URL+"/guru_types/", RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, fb.Count(), "no-store requests bypass the cache")
}

func TestDispatcher_Raw(t *testing.T) {
	d, fb := newTestDispatcher(t, false, nil)
	fb.Handle("GET", "/sitemap.xml", testutil.Reply{Status: 404, Body: "<missing/>"})

	resp, err := d.Raw(context.Background(), fb.URL+"/sitemap.xml", RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "<missing/>", resp.Text())
	assert.Empty(t, fb.Last(t).Header.Get("Authorization"))
}

func TestResponse_JSON_EmptyBody(t *testing.T) {
	out := map[string]string{"keep": "me"}
	require.NoError(t, (&Response{StatusCode: 204}).JSON(&out))
	assert.Equal(t, "me", out["keep"])
	assert.Error(t, (&Response{StatusCode: 200, Body: []byte("{")}).JSON(&out))
}
