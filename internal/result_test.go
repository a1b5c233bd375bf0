package internal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_Variants(t *testing.T) {
	ok := OK([]string{"a"})
	assert.True(t, ok.IsOK())
	v, good := ok.Unwrap()
	assert.True(t, good)
	assert.Equal(t, []string{"a"}, v)

	empty := Empty[[]string]()
	assert.True(t, empty.IsEmpty())
	_, good = empty.Unwrap()
	assert.False(t, good)

	failed := FailedMessage[int]("boom", 502)
	assert.True(t, failed.IsFailed())
	assert.Equal(t, &ActionError{Error: true, Message: "boom", Status: 502}, failed.Err)

	redirect := Redirect[int]("/login")
	assert.True(t, redirect.IsRedirect())
	assert.Equal(t, "/login", redirect.RedirectTo)
}

func TestResult_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		r    interface{}
		want string
	}{
		{"ok", OK(Object{"a": 1}), `{"a":1}`},
		{"empty", Empty[Object](), `null`},
		{"failed", FailedMessage[Object]("nope", 0), `{"error":true,"message":"nope"}`},
		{"failed with provider", Failed[Object](&ActionError{Error: true, Message: "m", Status: 490, Type: "openai", Reason: "openai_key_invalid"}), `{"error":true,"message":"m","status":490,"type":"openai","reason":"openai_key_invalid"}`},
		{"redirect", Redirect[Object]("/login"), `{"redirect":"/login"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.r)
			assert.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestMapResult(t *testing.T) {
	length := func(s []string) int { return len(s) }

	assert.Equal(t, 2, MapResult(OK([]string{"a", "b"}), length).Value)
	assert.True(t, MapResult(Empty[[]string](), length).IsEmpty())
	assert.Equal(t, "/login", MapResult(Redirect[[]string]("/login"), length).RedirectTo)

	failed := MapResult(FailedMessage[[]string]("x", 400), length)
	assert.True(t, failed.IsFailed())
	assert.Equal(t, 400, failed.Err.Status)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "ok", OutcomeOK.String())
	assert.Equal(t, "empty", OutcomeEmpty.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "redirect", OutcomeRedirect.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
