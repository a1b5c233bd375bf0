package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurubase/gurubase-cli/internal"
	"github.com/gurubase/gurubase-cli/testutil"
)

func TestGurusList(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.JSON("GET", "/guru_types/", 200, `[{"slug":"golang","name":"Go"},{"slug":"redis","name":"Redis"}]`)

	out, err := executeCommand(t, backendArgs(fb, "gurus", "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Gurus (")
	assert.Contains(t, out, "Go")
	assert.Contains(t, out, "redis")
	assert.Equal(t, "no-store", fb.Last(t).Header.Get("Cache-Control"))
}

func TestGurusList_JSON(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.JSON("GET", "/guru_types/", 200, `[{"slug":"golang","name":"Go"}]`)

	out, err := executeCommand(t, backendArgs(fb, "--format", "json", "gurus", "list")...)
	require.NoError(t, err)

	var gurus []internal.GuruType
	require.NoError(t, json.Unmarshal([]byte(out), &gurus))
	require.Len(t, gurus, 1)
	assert.Equal(t, "golang", gurus[0].Slug)
}

func TestGurusList_Failure(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.JSON("GET", "/guru_types/", 503, `{"msg":"maintenance"}`)

	_, err := executeCommand(t, backendArgs(fb, "gurus", "list")...)

	var failed *ActionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 503, failed.Err.Status)
	assert.Contains(t, err.Error(), "maintenance")
}

func TestGurusMine_RequiresLogin(t *testing.T) {
	fb := testutil.NewFakeBackend(t)

	_, err := executeCommand(t, "--backend-url", fb.URL, "--no-cache", "gurus", "mine")

	var login *LoginRequiredError
	require.True(t, errors.As(err, &login), "got %v", err)
	assert.Equal(t, internal.DefaultLoginPath, login.Location)
	assert.Zero(t, fb.Count())
}

func TestGurusStatus(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.JSON("GET", "/guru_types/status/golang/", 200, `{"ready":true}`)
	fb.JSON("GET", "/guru_types/status/redis/", 200, `{"ready":false}`)

	out, err := executeCommand(t, backendArgs(fb, "gurus", "status", "golang", "redis", "--concurrency", "1")...)
	require.NoError(t, err)
	assert.Regexp(t, `golang\s+ready`, out)
	assert.Regexp(t, `redis\s+indexing`, out)
}

func TestCheckReadiness_AllGurus(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	for _, slug := range []string{"a", "b", "c", "d"} {
		fb.JSON("GET", "/guru_types/status/"+slug+"/", 200, `{"ready":true}`)
	}
	cat := internal.NewTestCatalog(fb.URL, true, nil)

	ready, err := checkReadiness(context.Background(), cat, []string{"a", "b", "c", "d", "missing"}, 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true, "d": true, "missing": false}, ready)
	assert.Equal(t, 5, fb.Count())
}

func TestGurusSidebar(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.JSON("GET", "/guru_types/", 200, `[{"slug":"golang","name":"Go"},{"slug":"redis","name":"Redis"}]`)

	out, err := executeCommand(t, backendArgs(fb, "gurus", "sidebar", "--search", "RE")...)
	require.NoError(t, err)
	assert.Contains(t, out, "/g/redis")
	assert.NotContains(t, out, "/g/golang")
}

func TestGurusCreate_Multipart(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.JSON("POST", "/guru_types/create_frontend/", 200, `{"slug":"golang"}`)

	icon := filepath.Join(testutil.CreateTempDir(t), "icon.png")
	require.NoError(t, os.WriteFile(icon, []byte("png"), 0600))

	out, err := executeCommand(t, backendArgs(fb, "gurus", "create",
		"--name", "Go", "--domain-knowledge", "Go programming", "--icon", icon, "--field", "intro_text=hi")...)
	require.NoError(t, err)
	assert.Contains(t, out, "golang")

	last := fb.Last(t)
	_, params, err := mime.ParseMediaType(last.Header.Get("Content-Type"))
	require.NoError(t, err)
	form, err := multipart.NewReader(bytes.NewReader(last.Body), params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, form.Value["name"])
	assert.Equal(t, []string{"Go programming"}, form.Value["domain_knowledge"])
	assert.Equal(t, []string{"hi"}, form.Value["intro_text"])
	require.Len(t, form.File["icon_image"], 1)
	f, err := form.File["icon_image"][0].Open()
	require.NoError(t, err)
	data, _ := io.ReadAll(f)
	assert.Equal(t, "png", string(data))
}

func TestGurusCreate_BadField(t *testing.T) {
	_, err := executeCommand(t, "gurus", "create", "--field", "novalue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key=value")
}

func TestGurusRequest(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.JSON("POST", "/guru_types/submit_form/", 200, `{}`)

	_, err := executeCommand(t, backendArgs(fb, "gurus", "request")...)
	require.Error(t, err, "--email is required")

	out, err := executeCommand(t, backendArgs(fb, "gurus", "request", "--email", "me@example.com", "--github-repo", "https://github.com/golang/go")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Request submitted")

	var body internal.GuruCreationForm
	testutil.JSONUnmarshal(t, fb.Last(t).Body, &body)
	assert.Equal(t, "me@example.com", body.Email)
	assert.Equal(t, "cli", body.Source)
}
