package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPoolSize = 4

	// DefaultIdentityKey names the row used when none is configured.
	DefaultIdentityKey = "default"
)

const loadIdentitySQL = `
	SELECT client_id, session_id, last_access
	FROM client_identity
	WHERE identity_key = @identity_key`

const saveIdentitySQL = `
	INSERT INTO client_identity (identity_key, client_id, session_id, last_access)
	VALUES (@identity_key, @client_id, @session_id, @last_access)
	ON CONFLICT (identity_key) DO UPDATE SET
		client_id   = EXCLUDED.client_id,
		session_id  = EXCLUDED.session_id,
		last_access = EXCLUDED.last_access,
		updated_at  = now()`

// PostgresStore persists state as one row of the client_identity table,
// keyed by an identity key so several installations can share a database.
type PostgresStore struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgresStore connects a small connection pool and verifies it. An
// empty key selects DefaultIdentityKey.
func NewPostgresStore(ctx context.Context, connString, key string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if key == "" {
		key = DefaultIdentityKey
	}
	return &PostgresStore{pool: pool, key: key}, nil
}

// Close shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Migrate applies pending schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// Load reads the identity row. A missing row yields the zero State.
func (s *PostgresStore) Load(ctx context.Context) (State, error) {
	var (
		st         State
		lastAccess *time.Time
	)
	err := s.pool.QueryRow(ctx, loadIdentitySQL, pgx.NamedArgs{
		"identity_key": s.key,
	}).Scan(&st.ClientID, &st.SessionID, &lastAccess)
	if errors.Is(err, pgx.ErrNoRows) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("loading identity %s: %w", s.key, err)
	}
	if lastAccess != nil {
		st.LastAccess = *lastAccess
	}
	return st, nil
}

// Save upserts the identity row.
func (s *PostgresStore) Save(ctx context.Context, st State) error {
	var lastAccess *time.Time
	if !st.LastAccess.IsZero() {
		lastAccess = &st.LastAccess
	}

	if _, err := s.pool.Exec(ctx, saveIdentitySQL, pgx.NamedArgs{
		"identity_key": s.key,
		"client_id":    st.ClientID,
		"session_id":   st.SessionID,
		"last_access":  lastAccess,
	}); err != nil {
		return fmt.Errorf("saving identity %s: %w", s.key, err)
	}
	return nil
}
