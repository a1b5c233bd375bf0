package internal

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Classify(t *testing.T) {
	n := NewNormalizer("/login")

	tests := []struct {
		name       string
		err        error
		outcome    Outcome
		redirectTo string
		message    string
		status     int
	}{
		{
			name:    "nil is empty",
			err:     nil,
			outcome: OutcomeEmpty,
		},
		{
			name:       "redirect propagates",
			err:        pkgerrors.Wrap(&RedirectError{Location: "/elsewhere"}, "ctx"),
			outcome:    OutcomeRedirect,
			redirectTo: "/elsewhere",
		},
		{
			name:       "expired token goes to login",
			err:        pkgerrors.Wrap(ErrAccessTokenExpired, "refresh"),
			outcome:    OutcomeRedirect,
			redirectTo: "/login",
		},
		{
			name:    "unauthorized is a soft failure",
			err:     errors.New("Unauthorized"),
			outcome: OutcomeEmpty,
		},
		{
			name:    "json msg is unwrapped",
			err:     &BackendError{Status: 400, Message: `{"msg":"Guru not found"}`},
			outcome: OutcomeFailed,
			message: "Guru not found",
			status:  400,
		},
		{
			name:    "json without msg is kept",
			err:     errors.New(`{"detail":"nope"}`),
			outcome: OutcomeFailed,
			message: `{"detail":"nope"}`,
		},
		{
			name:    "rate limit keeps status",
			err:     &HTTPError{Kind: KindRateLimited, Status: 429, Message: "Server api rate limiting reached!"},
			outcome: OutcomeFailed,
			message: "Server api rate limiting reached!",
			status:  429,
		},
		{
			name:    "plain error",
			err:     errors.New("dial tcp: connection refused"),
			outcome: OutcomeFailed,
			message: "dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := n.Classify(tt.err)
			assert.Equal(t, tt.outcome, c.Outcome)
			assert.Equal(t, tt.redirectTo, c.RedirectTo)
			if tt.outcome == OutcomeFailed {
				require.NotNil(t, c.Err)
				assert.True(t, c.Err.Error)
				assert.Equal(t, tt.message, c.Err.Message)
				assert.Equal(t, tt.status, c.Err.Status)
			} else {
				assert.Nil(t, c.Err)
			}
		})
	}
}

func TestNormalizer_ProviderConfig(t *testing.T) {
	n := NewNormalizer("")
	c := n.Classify(&ProviderConfigError{Message: "Invalid key", Status: 490, Type: "openai", Reason: "openai_key_invalid"})

	require.Equal(t, OutcomeFailed, c.Outcome)
	assert.Equal(t, &ActionError{Error: true, Message: "Invalid key", Status: 490, Type: "openai", Reason: "openai_key_invalid"}, c.Err)
}

func TestNormalizer_Idempotent(t *testing.T) {
	n := NewNormalizer("/login")
	errs := []error{
		nil,
		ErrAccessTokenExpired,
		errors.New("Unauthorized"),
		&BackendError{Status: 500, Message: `{"msg":"boom"}`},
	}
	for _, err := range errs {
		assert.Equal(t, n.Classify(err), n.Classify(err))
		assert.Equal(t, n.Classify(err), n.Handle(err, Fields{"guru": "x"}))
	}
}

func TestNormalizer_DefaultLoginPath(t *testing.T) {
	c := NewNormalizer("").Classify(ErrAccessTokenExpired)
	assert.Equal(t, DefaultLoginPath, c.RedirectTo)
}

func TestFail(t *testing.T) {
	n := NewNormalizer("/login")

	r := Fail[[]GuruType](n, &RedirectError{Location: "/login"}, nil)
	assert.True(t, r.IsRedirect())
	assert.Equal(t, "/login", r.RedirectTo)

	r = Fail[[]GuruType](n, errors.New("Unauthorized"), nil)
	assert.True(t, r.IsEmpty())

	r = Fail[[]GuruType](n, errors.New("boom"), Fields{"context": "getGuruTypes"})
	require.True(t, r.IsFailed())
	assert.Equal(t, "boom", r.Err.Message)
}
