package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Catalog is the set of backend actions. Every method returns a Result and
// never a Go error; redirects come back as the Redirect variant.
type Catalog struct {
	cfg        *Config
	dispatcher *Dispatcher
	sessions   *SessionResolver
	normalizer *Normalizer
}

// NewCatalog builds a catalog over d.
func NewCatalog(cfg *Config, d *Dispatcher) *Catalog {
	return &Catalog{
		cfg:        cfg,
		dispatcher: d,
		sessions:   d.Sessions(),
		normalizer: NewNormalizer(cfg.LoginPath),
	}
}

// Sessions returns the resolver behind the catalog.
func (c *Catalog) Sessions() *SessionResolver {
	return c.sessions
}

// AuthTokenForStream returns the caller's token for streaming answers, or "".
func (c *Catalog) AuthTokenForStream(ctx context.Context) string {
	return c.sessions.AuthTokenForStream(ctx)
}

// CurrentUserData returns the signed-in user, or Empty.
func (c *Catalog) CurrentUserData(ctx context.Context) Result[*User] {
	u := c.sessions.CurrentUser(ctx)
	if u == nil {
		return Empty[*User]()
	}
	return OK(u)
}

// run executes fn and turns its error into the matching Result.
func run[T any](c *Catalog, action string, fields Fields, fn func() (T, error)) Result[T] {
	v, err := fn()
	var r Result[T]
	if err != nil {
		if fields == nil {
			fields = Fields{}
		}
		fields["context"] = action
		r = Fail[T](c.normalizer, err, fields)
	} else {
		r = OK(v)
	}
	RecordActionResult(action, r.Outcome())
	return r
}

// authJSON is the common "authenticated call, decode JSON" action body.
func authJSON[T any](ctx context.Context, c *Catalog, u string, opts RequestOptions) (T, error) {
	var out T
	err := c.dispatcher.AuthenticatedJSON(ctx, u, opts, &out)
	return out, err
}

// publicJSON is the public counterpart of authJSON.
func publicJSON[T any](ctx context.Context, c *Catalog, u string, opts RequestOptions) (T, error) {
	var out T
	err := c.dispatcher.PublicJSON(ctx, u, opts, &out)
	return out, err
}

// switchedJSON uses the authenticated path when a user is signed in and the
// public path otherwise.
func switchedJSON[T any](ctx context.Context, c *Catalog, u string, opts RequestOptions) (T, error) {
	resp, err := c.switched(ctx, u, opts)
	var out T
	if err != nil {
		return out, err
	}
	err = resp.JSON(&out)
	return out, err
}

func (c *Catalog) switched(ctx context.Context, u string, opts RequestOptions) (*Response, error) {
	hasUser, err := c.sessions.HasUser(ctx)
	if err != nil {
		return nil, err
	}
	if hasUser {
		return c.dispatcher.Authenticated(ctx, u, opts)
	}
	return c.dispatcher.Public(ctx, u, opts)
}

// endpoint joins escaped path segments onto the backend URL, keeping the
// trailing slash the backend routes expect.
func (c *Catalog) endpoint(segments ...string) string {
	path := ""
	for _, s := range segments {
		path += "/" + pathSeg(s)
	}
	return c.cfg.Endpoint("%s", path+"/")
}

// withQuery appends encoded query parameters, skipping empty values.
func withQuery(u string, kv ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			q.Add(kv[i], kv[i+1])
		}
	}
	if len(q) == 0 {
		return u
	}
	return u + "?" + q.Encode()
}

func pathSeg(s string) string {
	return url.PathEscape(s)
}

func queryEscape(s string) string {
	return url.QueryEscape(s)
}

func jsonOpts(method string, payload interface{}) (RequestOptions, error) {
	return JSONRequest(method, payload)
}

func getJSON() RequestOptions {
	return RequestOptions{Method: http.MethodGet, ContentType: "application/json"}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// withFallback gives authenticated failures a readable message when the
// backend body carries no msg: detail if present, otherwise fallback.
func withFallback(err error, fallback string) error {
	var be *BackendError
	if !errors.As(err, &be) {
		return err
	}
	var body struct {
		Msg    string `json:"msg"`
		Detail string `json:"detail"`
	}
	if jerr := json.Unmarshal([]byte(be.Message), &body); jerr == nil {
		switch {
		case body.Msg != "":
			return err
		case body.Detail != "":
			return &BackendError{Status: be.Status, Message: body.Detail}
		default:
			return &BackendError{Status: be.Status, Message: fallback}
		}
	}
	if strings.TrimSpace(be.Message) == "" {
		return &BackendError{Status: be.Status, Message: fallback}
	}
	return err
}
