package internal

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurubase/gurubase-cli/testutil"
)

func newTestCache(t *testing.T) (*ResponseCache, *time.Time) {
	t.Helper()
	rc := NewResponseCache(testutil.CreateTempDir(t))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rc.now = func() time.Time { return now }
	return rc, &now
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("GET", "http://b/x/", "Bearer one")
	b := CacheKey("GET", "http://b/x/", "Bearer two")

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b, "different credentials must not share an entry")
	assert.Equal(t, a, CacheKey("GET", "http://b/x/", "Bearer one"))
}

func TestResponseCache_PutGet(t *testing.T) {
	rc, now := newTestCache(t)
	resp := &Response{StatusCode: 200, Status: "200 OK", Header: http.Header{"X": {"1"}}, Body: []byte(`[1]`)}

	require.NoError(t, rc.Put("k1", "http://b/guru_types/", resp, time.Hour))

	got, ok := rc.Get("k1")
	require.True(t, ok)
	assert.True(t, got.Cached)
	assert.Equal(t, []byte(`[1]`), got.Body)
	assert.Equal(t, "1", got.Header.Get("X"))

	*now = now.Add(2 * time.Hour)
	_, ok = rc.Get("k1")
	assert.False(t, ok, "stale entries are not served")
}

func TestResponseCache_ZeroTTL(t *testing.T) {
	rc, _ := newTestCache(t)
	require.NoError(t, rc.Put("k", "u", &Response{StatusCode: 200}, 0))

	_, ok := rc.Get("k")
	assert.False(t, ok)
	_, err := os.Stat(rc.GetIndexPath())
	assert.True(t, os.IsNotExist(err))
}

func TestResponseCache_IndexAndPrune(t *testing.T) {
	rc, now := newTestCache(t)
	require.NoError(t, rc.Put("short", "u1", &Response{StatusCode: 200}, time.Minute))
	require.NoError(t, rc.Put("long", "u2", &Response{StatusCode: 200}, time.Hour))
	require.NoError(t, rc.Put("long", "u2", &Response{StatusCode: 200, Body: []byte("xx")}, time.Hour))

	index, err := rc.LoadIndex()
	require.NoError(t, err)
	require.Len(t, index.Entries, 2)
	assert.Equal(t, responseCacheVersion, index.Metadata.CacheVersion)

	*now = now.Add(10 * time.Minute)
	removed, err := rc.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	index, err = rc.LoadIndex()
	require.NoError(t, err)
	require.Len(t, index.Entries, 1)
	assert.Equal(t, "long", index.Entries[0].Key)
	assert.Equal(t, 2, index.Entries[0].Size)
}

func TestResponseCache_PruneEmpty(t *testing.T) {
	rc, _ := newTestCache(t)
	removed, err := rc.Prune()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestResponseCache_ClearCache(t *testing.T) {
	rc, _ := newTestCache(t)
	require.NoError(t, rc.Put("k", "u", &Response{StatusCode: 200}, time.Hour))
	require.NoError(t, rc.ClearCache())

	_, ok := rc.Get("k")
	assert.False(t, ok)
	_, err := os.Stat(rc.GetIndexPath())
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, rc.ClearCache(), "clearing twice is fine")
}

func TestResponseCache_CorruptEntry(t *testing.T) {
	rc, _ := newTestCache(t)
	require.NoError(t, os.MkdirAll(rc.GetCacheDir(), 0700))
	require.NoError(t, os.WriteFile(rc.GetEntryPath("bad"), []byte("{"), 0600))

	_, ok := rc.Get("bad")
	assert.False(t, ok)
	_, err := os.Stat(rc.GetEntryPath("bad"))
	assert.True(t, os.IsNotExist(err))
}
