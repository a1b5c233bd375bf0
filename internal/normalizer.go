package internal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Fields is the context logged alongside a failed action.
type Fields map[string]interface{}

// Classification is what the normalizer decided a failure means.
type Classification struct {
	Outcome    Outcome
	RedirectTo string
	Err        *ActionError
}

// Normalizer maps dispatcher failures onto the uniform result shape.
type Normalizer struct {
	loginPath string
}

// NewNormalizer creates a Normalizer that sends expired sessions to loginPath.
func NewNormalizer(loginPath string) *Normalizer {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return &Normalizer{loginPath: loginPath}
}

// Classify decides what err means for the caller. It has no side effects, so
// the same error always classifies the same way.
func (n *Normalizer) Classify(err error) Classification {
	if err == nil {
		return Classification{Outcome: OutcomeEmpty}
	}

	if loc, ok := AsRedirect(err); ok {
		return Classification{Outcome: OutcomeRedirect, RedirectTo: loc}
	}
	if IsTokenExpired(err) {
		return Classification{Outcome: OutcomeRedirect, RedirectTo: n.loginPath}
	}

	msg := err.Error()
	if strings.Contains(msg, "Unauthorized") {
		return Classification{Outcome: OutcomeEmpty}
	}

	ae := &ActionError{Error: true, Message: unwrapMsg(msg), Status: statusOf(err)}

	var pe *ProviderConfigError
	if errors.As(err, &pe) {
		ae.Type, ae.Reason = pe.Type, pe.Reason
	}
	return Classification{Outcome: OutcomeFailed, Err: ae}
}

// Handle logs err with its stack and fields, then classifies it.
func (n *Normalizer) Handle(err error, fields Fields) Classification {
	if err != nil {
		ev := Logger().Error().
			Str("error", err.Error()).
			Str("stack", fmt.Sprintf("%+v", err))
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ev = ev.Interface(k, fields[k])
		}
		ev.Msg("Request failed")
	}

	return n.Classify(err)
}

// Fail converts err into the matching non-OK Result.
func Fail[T any](n *Normalizer, err error, fields Fields) Result[T] {
	c := n.Handle(err, fields)
	switch c.Outcome {
	case OutcomeRedirect:
		return Redirect[T](c.RedirectTo)
	case OutcomeFailed:
		return Failed[T](c.Err)
	default:
		return Empty[T]()
	}
}

// unwrapMsg pulls msg out of a JSON-encoded error body, falling back to the
// message itself.
func unwrapMsg(message string) string {
	if !strings.Contains(message, `"msg"`) {
		return message
	}
	var body struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal([]byte(message), &body); err != nil || body.Msg == "" {
		return message
	}
	return body.Msg
}
