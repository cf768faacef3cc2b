package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/stefanpenner/analog/pkg/board"
)

// DefaultRedisKey is the key the snapshot lives under when none is configured.
const DefaultRedisKey = "analog:board"

const defaultRedisTimeout = 2 * time.Second

// RedisStore keeps the board snapshot as a single JSON value in Redis.
type RedisStore struct {
	client  *redis.Client
	key     string
	timeout time.Duration
	logger  *log.Logger
}

// NewRedisStore wraps client. An empty key means DefaultRedisKey and a
// non-positive timeout means two seconds per call.
func NewRedisStore(client *redis.Client, key string, timeout time.Duration, logger *log.Logger) *RedisStore {
	if client == nil {
		panic("store.NewRedisStore: client is nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RedisStore{client: client, key: key, timeout: timeout, logger: logger}
}

// Key returns the Redis key holding the snapshot.
func (s *RedisStore) Key() string {
	return s.key
}

// Read fetches and validates the stored snapshot.
func (s *RedisStore) Read() (board.State, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return board.State{}, ErrNoSnapshot
	}
	if err != nil {
		return board.State{}, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	st, err := decodeSnapshot(JSON, data)
	if err != nil {
		return board.State{}, fmt.Errorf("redis %s: %w", s.key, err)
	}
	return st, nil
}

// Write stores the snapshot with no expiry.
func (s *RedisStore) Write(st board.State) error {
	data, err := JSON.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding board: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Load implements board.Storage.
func (s *RedisStore) Load() (board.State, bool) {
	return loadBestEffort(s.logger, "redis:"+s.key, s.Read)
}

// Save implements board.Storage.
func (s *RedisStore) Save(st board.State) {
	saveBestEffort(s.logger, "redis:"+s.key, st, s.Write)
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
