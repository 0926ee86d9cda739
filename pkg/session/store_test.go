package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/constructorio-go/pkg/session"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// storeFactories builds one fresh Store per backend that does not need an
// external service.
func storeFactories(t *testing.T) map[string]func() session.Store {
	t.Helper()
	return map[string]func() session.Store{
		"memory": func() session.Store { return session.NewMemoryStore() },
		"file": func() session.Store {
			return session.NewFileStore(filepath.Join(t.TempDir(), "nested", "identity.json"))
		},
		"redis": func() session.Store {
			_, client := setupMiniRedis(t)
			return session.NewRedisStore(client, "")
		},
	}
}

func TestStores_RoundTrip(t *testing.T) {
	t.Parallel()

	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := newStore()

			empty, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, session.State{}, empty)

			want := session.State{
				ClientID:   "3f5a8c3e-2f0e-4f4a-9d1b-6b1b1c9c2a11",
				SessionID:  4,
				LastAccess: time.UnixMilli(1709294400123).UTC(),
			}
			require.NoError(t, store.Save(ctx, want))

			got, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want.ClientID, got.ClientID)
			assert.Equal(t, want.SessionID, got.SessionID)
			assert.True(t, want.LastAccess.Equal(got.LastAccess), "got %v", got.LastAccess)

			want.SessionID = 5
			require.NoError(t, store.Save(ctx, want))
			got, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, 5, got.SessionID)
		})
	}
}

func TestStores_ClientIDStableAcrossManagers(t *testing.T) {
	t.Parallel()

	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := newStore()

			first, err := session.New(ctx, store)
			require.NoError(t, err)
			require.Equal(t, 1, first.SessionID(ctx))

			second, err := session.New(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, first.ClientID(), second.ClientID())
			assert.Equal(t, 1, second.Current())
			assert.Equal(t, 1, second.SessionID(ctx))
		})
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "identity.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := session.NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing identity file")
}

func TestFileStore_WritesPrivateFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "identity.json")
	store := session.NewFileStore(path)
	assert.Equal(t, path, store.Path())
	require.NoError(t, store.Save(context.Background(), session.State{ClientID: "abc"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"client_id": "abc"`)
}

func TestRedisStore_HashLayout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mr, client := setupMiniRedis(t)
	store := session.NewRedisStore(client, "app:identity")

	require.NoError(t, store.Save(ctx, session.State{ClientID: "guid", SessionID: 2}))

	assert.Equal(t, "guid", mr.HGet("app:identity", "client_id"))
	assert.Equal(t, "2", mr.HGet("app:identity", "session_id"))
	assert.Equal(t, "0", mr.HGet("app:identity", "last_access"))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.LastAccess.IsZero())
}

func TestRedisStore_BadFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mr, client := setupMiniRedis(t)
	mr.HSet(session.DefaultRedisKey, "client_id", "guid", "session_id", "three")

	_, err := session.NewRedisStore(client, "").Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing session_id")
}

func TestRedisStore_ServerDown(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mr, client := setupMiniRedis(t)
	store := session.NewRedisStore(client, "")
	mr.Close()

	_, err := store.Load(ctx)
	require.Error(t, err)
	require.Error(t, store.Save(ctx, session.State{ClientID: "x"}))
}

func TestDialRedis(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client, err := session.DialRedis(ctx, session.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = session.DialRedis(ctx, session.RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}
