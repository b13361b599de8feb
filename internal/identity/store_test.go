package identity

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.LoadToken(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.LoadProfile(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveToken(ctx, "tok-1"))
	require.NoError(t, store.SaveProfile(ctx, []byte(`{"id":"u-1"}`)))

	tok, err := store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	profile, err := store.LoadProfile(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u-1"}`, string(profile))

	require.NoError(t, store.ClearToken(ctx))
	require.NoError(t, store.ClearProfile(ctx))
	require.NoError(t, store.ClearToken(ctx), "clearing twice is fine")

	_, err = store.LoadToken(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.LoadProfile(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(""))
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, NewFileStore(t.TempDir()))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "test:creds")
	exerciseStore(t, store)

	require.NoError(t, store.SaveToken(context.Background(), "tok-2"))
	got, err := mr.Get("test:creds:token")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got)
}
