package internal

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrAccessTokenExpired is returned by identity providers when the stored
	// token can no longer be refreshed.
	ErrAccessTokenExpired = errors.New("access token expired")

	// ErrNoSession is returned when a lookup finds no stored session.
	ErrNoSession = errors.New("no session")
)

// RedirectError tells the caller to send the user somewhere else (the login
// route) instead of producing a value. It always propagates to the surface.
type RedirectError struct {
	Location string
	Reason   string
}

func (e *RedirectError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("redirect required: %s", e.Location)
	}
	return fmt.Sprintf("redirect required: %s (%s)", e.Location, e.Reason)
}

// AsRedirect reports whether err carries a redirect and where it points.
func AsRedirect(err error) (string, bool) {
	var re *RedirectError
	if errors.As(err, &re) {
		return re.Location, true
	}
	return "", false
}

// IsTokenExpired matches the expired-token sentinel. Message matching covers
// providers that only hand back strings.
func IsTokenExpired(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAccessTokenExpired) {
		return true
	}
	msg := err.Error()
	return msg == "AuthenticationExpired" || strings.Contains(msg, "access token expired")
}

// ErrorKind classifies backend failures on the public path.
type ErrorKind string

const (
	KindRateLimited           ErrorKind = "rate_limited"
	KindDependencyUnavailable ErrorKind = "dependency_unavailable"
)

// HTTPError is a backend status that maps to a dedicated failure kind.
type HTTPError struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// ProviderConfigError reports invalid AI model provider settings (status 490).
type ProviderConfigError struct {
	Message string
	Status  int
	Type    string
	Reason  string
}

func (e *ProviderConfigError) Error() string {
	return e.Message
}

// BackendError is any other non-success response. Message is the raw body on the
// authenticated path and the extracted msg on the public path.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// StorageError represents errors accessing the local session store or cache
type StorageError struct {
	Path string
	Op   string // "open", "read", "write", "migrate"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// statusOf digs an HTTP status out of any of the typed backend errors.
func statusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	var pe *ProviderConfigError
	if errors.As(err, &pe) {
		return pe.Status
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Status
	}
	return 0
}
