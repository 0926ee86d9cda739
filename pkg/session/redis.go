package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash key used when none is configured.
const DefaultRedisKey = "cio:identity"

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisStore persists state in a Redis hash with the fields client_id,
// session_id and last_access (Unix milliseconds, 0 when unset).
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisStore returns a RedisStore using client and hash key. An empty key
// selects DefaultRedisKey.
func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// DialRedis connects to Redis and verifies the connection.
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("connecting to redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Load reads the identity hash. A missing key yields the zero State.
func (r *RedisStore) Load(ctx context.Context) (State, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return State{}, fmt.Errorf("reading identity hash %s: %w", r.key, err)
	}
	if len(fields) == 0 {
		return State{}, nil
	}

	s := State{ClientID: fields["client_id"]}
	if v := fields["session_id"]; v != "" {
		if s.SessionID, err = strconv.Atoi(v); err != nil {
			return State{}, fmt.Errorf("parsing session_id %q: %w", v, err)
		}
	}
	if v := fields["last_access"]; v != "" && v != "0" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return State{}, fmt.Errorf("parsing last_access %q: %w", v, err)
		}
		s.LastAccess = time.UnixMilli(ms)
	}
	return s, nil
}

// Save overwrites the identity hash.
func (r *RedisStore) Save(ctx context.Context, s State) error {
	var lastAccess int64
	if !s.LastAccess.IsZero() {
		lastAccess = s.LastAccess.UnixMilli()
	}

	err := r.client.HSet(ctx, r.key,
		"client_id", s.ClientID,
		"session_id", s.SessionID,
		"last_access", lastAccess,
	).Err()
	if err != nil {
		return fmt.Errorf("writing identity hash %s: %w", r.key, err)
	}
	return nil
}
