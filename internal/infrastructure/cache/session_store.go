package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"mini-los/internal/domain/session"
)

var (
	_ session.Store = (*RedisSessionStore)(nil)
	_ session.Store = (*MemorySessionStore)(nil)
)

// RedisSessionStore keeps the bearer token under a single key with no expiry;
// the token's own exp claim bounds its life.
type RedisSessionStore struct {
	rdb *redis.Client
	key string
}

func NewRedisSessionStore(rdb *redis.Client, key string) *RedisSessionStore {
	if key == "" {
		key = session.TokenKey
	}
	return &RedisSessionStore{rdb: rdb, key: key}
}

func (s *RedisSessionStore) Load(ctx context.Context) (string, error) {
	v, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *RedisSessionStore) Save(ctx context.Context, token string) error {
	return s.rdb.Set(ctx, s.key, token, 0).Err()
}

func (s *RedisSessionStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}

type MemorySessionStore struct {
	mu    sync.Mutex
	token string
}

func NewMemorySessionStore() *MemorySessionStore { return &MemorySessionStore{} }

func (s *MemorySessionStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemorySessionStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Clear(context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
