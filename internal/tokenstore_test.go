package internal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurubase/gurubase-cli/testutil"
)

func TestTokenStore_SaveLoadDelete(t *testing.T) {
	store, err := NewTokenStore(testutil.CreateInMemoryDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	in := &StoredSession{
		ID:           "s1",
		User:         User{Sub: "auth0|1", Email: "a@example.com"},
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}
	require.NoError(t, store.Save(ctx, in))
	assert.False(t, in.CreatedAt.IsZero())

	out, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, in.User, out.User)
	assert.Equal(t, "access", out.AccessToken)
	assert.Equal(t, "refresh", out.RefreshToken)
	assert.True(t, expiry.Equal(out.Expiry))

	out.AccessToken = "rotated"
	require.NoError(t, store.Save(ctx, out))
	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "rotated", again.AccessToken)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Delete(ctx, "s1"))
	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestTokenStore_NoExpiry(t *testing.T) {
	store, err := NewTokenStore(testutil.CreateInMemoryDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &StoredSession{ID: "s", AccessToken: "a"}))
	out, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.True(t, out.Expiry.IsZero())
	assert.Empty(t, out.RefreshToken)
}

func TestTokenStore_RequiresID(t *testing.T) {
	store, err := NewTokenStore(testutil.CreateInMemoryDB(t))
	require.NoError(t, err)
	assert.Error(t, store.Save(context.Background(), &StoredSession{}))
}

func TestOpenTokenStore(t *testing.T) {
	path := filepath.Join(testutil.CreateTempDir(t), "nested", "sessions.db")
	store, err := OpenTokenStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), &StoredSession{ID: CLISessionID, AccessToken: "a"}))
	require.NoError(t, store.Close())

	reopened, err := OpenTokenStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	n, err := reopened.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoredSession_SetToken(t *testing.T) {
	s := &StoredSession{RefreshToken: "keep", TokenType: "Bearer"}
	s.SetToken(s.Token())
	assert.Equal(t, "keep", s.RefreshToken)
	assert.Equal(t, "Bearer", s.Token().TokenType)
}
