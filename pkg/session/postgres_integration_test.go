//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/donaldgifford/constructorio-go/pkg/session"
)

func setupPostgres(t *testing.T, key string) *session.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("cio_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := session.NewPostgresStore(ctx, connStr, key)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.Migrate(ctx))
	// Migrations are idempotent.
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupPostgres(t, "")

	empty, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.State{}, empty)

	require.NoError(t, s.Save(ctx, session.State{ClientID: "guid", SessionID: 0}))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "guid", got.ClientID)
	assert.True(t, got.LastAccess.IsZero())

	now := time.Now().Truncate(time.Microsecond)
	require.NoError(t, s.Save(ctx, session.State{ClientID: "guid", SessionID: 3, LastAccess: now}))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SessionID)
	assert.True(t, now.Equal(got.LastAccess))
}

func TestPostgresStore_ManagerRestart(t *testing.T) {
	ctx := context.Background()
	s := setupPostgres(t, "device-1")

	first, err := session.New(ctx, s)
	require.NoError(t, err)
	require.Equal(t, 1, first.SessionID(ctx))

	second, err := session.New(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, first.ClientID(), second.ClientID())
	assert.Equal(t, 1, second.SessionID(ctx))
}
