package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CacheNoStore disables caching for a call. Any other non-empty Cache value
// leaves caching to the backend's headers.
const CacheNoStore = "no-store"

const (
	modeAuthenticated = "authenticated"
	modePublic        = "public"
	modeRaw           = "raw"
)

// NextOptions is a revalidate-after-N-seconds caching hint.
type NextOptions struct {
	Revalidate int
}

// RequestOptions configures one backend call. The zero value is a GET with
// no body, no extra headers and no caching.
type RequestOptions struct {
	Method      string
	Header      http.Header
	Body        []byte
	ContentType string
	Cache       string
	Next        *NextOptions
}

// JSONRequest builds options carrying payload as a JSON body.
func JSONRequest(method string, payload interface{}) (RequestOptions, error) {
	opts := RequestOptions{Method: method, ContentType: "application/json"}
	if payload == nil {
		return opts, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return opts, errors.Wrap(err, "failed to encode request body")
	}
	opts.Body = body
	return opts, nil
}

func (o RequestOptions) method() string {
	if o.Method == "" {
		return http.MethodGet
	}
	return o.Method
}

type cachePolicy struct {
	noStore    bool
	revalidate time.Duration
}

// resolveCachePolicy applies the precedence: a Next hint wins, then an explicit
// Cache value, then no-store.
func resolveCachePolicy(o RequestOptions) cachePolicy {
	if o.Next != nil {
		return cachePolicy{revalidate: time.Duration(o.Next.Revalidate) * time.Second}
	}
	if o.Cache != "" {
		return cachePolicy{noStore: o.Cache == CacheNoStore}
	}
	return cachePolicy{noStore: true}
}

func (p cachePolicy) apply(h http.Header) {
	switch {
	case p.noStore:
		h.Set("Cache-Control", "no-store")
	case p.revalidate > 0:
		h.Set("Cache-Control", "max-age="+strconv.Itoa(int(p.revalidate/time.Second)))
	}
}

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Cached     bool
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body into out. An empty body leaves out untouched.
func (r *Response) JSON(out interface{}) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return errors.Wrapf(err, "failed to decode response (status %d)", r.StatusCode)
	}
	return nil
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Dispatcher performs backend calls on behalf of the catalog, attaching either
// the caller's bearer token or the static service token.
type Dispatcher struct {
	cfg      *Config
	sessions *SessionResolver
	client   *http.Client
	cache    *ResponseCache
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) DispatcherOption {
	return func(d *Dispatcher) { d.client = c }
}

// WithResponseCache enables the on-disk cache for revalidate-hinted GETs.
func WithResponseCache(c *ResponseCache) DispatcherOption {
	return func(d *Dispatcher) { d.cache = c }
}

// NewDispatcher creates a dispatcher. The deployment mode comes from the
// resolver, which in turn was built from cfg.
func NewDispatcher(cfg *Config, sessions *SessionResolver, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		sessions: sessions,
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sessions exposes the resolver the dispatcher was built with.
func (d *Dispatcher) Sessions() *SessionResolver {
	return d.sessions
}

// Authenticated calls the backend as the current user. Missing sessions,
// expired tokens and 401/403 answers come back as *RedirectError.
func (d *Dispatcher) Authenticated(ctx context.Context, url string, opts RequestOptions) (*Response, error) {
	if d.sessions.SelfHosted() {
		opts.Cache = CacheNoStore
		opts.Next = nil
		return d.Public(ctx, url, opts)
	}

	sess, err := d.sessions.UserSession(ctx)
	if err != nil {
		return nil, d.authFailure(err)
	}
	if sess == nil || sess.User == nil {
		return nil, d.loginRedirect("no_session")
	}

	token, err := d.sessions.AccessToken(ctx)
	if err != nil {
		return nil, d.authFailure(err)
	}

	header := cloneHeader(opts.Header)
	header.Set("Authorization", "Bearer "+token)

	resp, err := d.do(ctx, modeAuthenticated, url, opts, header)
	if err != nil {
		return nil, d.authFailure(err)
	}

	if !resp.OK() {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, d.loginRedirect("status_" + strconv.Itoa(resp.StatusCode))
		}
		return nil, &BackendError{Status: resp.StatusCode, Message: resp.Text()}
	}
	return resp, nil
}

// AuthenticatedJSON is Authenticated followed by decoding the body into out.
func (d *Dispatcher) AuthenticatedJSON(ctx context.Context, url string, opts RequestOptions, out interface{}) error {
	resp, err := d.Authenticated(ctx, url, opts)
	if err != nil {
		return err
	}
	return resp.JSON(out)
}

// Public calls the backend with the static service token. Caller headers win
// over the service Authorization header.
func (d *Dispatcher) Public(ctx context.Context, url string, opts RequestOptions) (*Response, error) {
	header := http.Header{}
	if d.cfg.BackendAuthToken != "" {
		header.Set("Authorization", d.cfg.BackendAuthToken)
	}
	for k, v := range opts.Header {
		header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}

	resp, err := d.do(ctx, modePublic, url, opts, header)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return nil, &HTTPError{Kind: KindRateLimited, Status: resp.StatusCode, Message: "Server api rate limiting reached!"}
	case http.StatusTooEarly:
		return nil, &HTTPError{Kind: KindDependencyUnavailable, Status: resp.StatusCode, Message: "Reranker model is not available!"}
	case StatusProviderConfig:
		return nil, providerConfigError(resp)
	}

	if !resp.OK() {
		var details map[string]interface{}
		if err := json.Unmarshal(resp.Body, &details); err != nil {
			LogError("Error details for url %s: %s (status %d)", url, resp.Status, resp.StatusCode)
		} else {
			LogError("Error details for url %s: %v (status %d)", url, details, resp.StatusCode)
			if msg, ok := details["msg"].(string); ok && msg != "" {
				return nil, &BackendError{Status: resp.StatusCode, Message: msg}
			}
		}
		return nil, &BackendError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Request failed with status %d", resp.StatusCode),
		}
	}
	return resp, nil
}

// PublicJSON is Public followed by decoding the body into out.
func (d *Dispatcher) PublicJSON(ctx context.Context, url string, opts RequestOptions, out interface{}) error {
	resp, err := d.Public(ctx, url, opts)
	if err != nil {
		return err
	}
	return resp.JSON(out)
}

// Raw performs an unauthenticated call with no status handling at all.
func (d *Dispatcher) Raw(ctx context.Context, url string, opts RequestOptions) (*Response, error) {
	return d.do(ctx, modeRaw, url, opts, cloneHeader(opts.Header))
}

// StatusProviderConfig is the backend status for invalid AI provider settings.
const StatusProviderConfig = 490

func providerConfigError(resp *Response) *ProviderConfigError {
	var body struct {
		Msg    string `json:"msg"`
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		LogDebug("Unparseable provider error body: %v", err)
	}
	e := &ProviderConfigError{
		Message: body.Msg,
		Status:  resp.StatusCode,
		Type:    body.Type,
		Reason:  body.Reason,
	}
	if e.Message == "" {
		e.Message = "Invalid AI model provider settings"
	}
	if e.Type == "" {
		e.Type = "openai"
	}
	if e.Reason == "" {
		e.Reason = "openai_key_invalid"
	}
	return e
}

func (d *Dispatcher) do(ctx context.Context, mode, url string, opts RequestOptions, header http.Header) (*Response, error) {
	method := opts.method()
	policy := resolveCachePolicy(opts)

	var key string
	if d.cache != nil && method == http.MethodGet && policy.revalidate > 0 {
		key = CacheKey(method, url, header.Get("Authorization"))
		if resp, ok := d.cache.Get(key); ok {
			ResponseCacheHitsTotal.Inc()
			LogDebug("%s %s served from cache", method, url)
			return resp, nil
		}
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", url)
	}
	req.Header = header
	if opts.ContentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", opts.ContentType)
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
	policy.apply(req.Header)

	start := time.Now()
	httpResp, err := d.client.Do(req)
	if err != nil {
		RecordBackendRequest(mode, 0, time.Since(start))
		return nil, errors.Wrapf(err, "%s %s", method, url)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	RecordBackendRequest(mode, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response from %s", url)
	}
	LogDebug("%s %s -> %d (%s)", method, url, httpResp.StatusCode, time.Since(start).Round(time.Millisecond))

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       data,
	}
	if key != "" && resp.OK() {
		if err := d.cache.Put(key, url, resp, policy.revalidate); err != nil {
			LogWarn("Failed to cache response for %s: %v", url, err)
		}
	}
	return resp, nil
}

// authFailure turns token-expiry failures into a login redirect and passes
// everything else through unchanged.
func (d *Dispatcher) authFailure(err error) error {
	if _, ok := AsRedirect(err); ok {
		return err
	}
	if IsTokenExpired(err) {
		return d.loginRedirect("token_expired")
	}
	return err
}

func (d *Dispatcher) loginRedirect(reason string) *RedirectError {
	RecordLoginRedirect(reason)
	return &RedirectError{Location: d.cfg.LoginPath, Reason: reason}
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return http.Header{}
	}
	return h.Clone()
}
