package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps credentials in redis so several front-end processes on a
// host can share one login.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStore creates a store whose keys live under prefix.
func NewRedisStore(redisClient *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "clinic-booking:credentials"
	}
	return &RedisStore{redis: redisClient, prefix: prefix}
}

func (s *RedisStore) key(kind string) string {
	return fmt.Sprintf("%s:%s", s.prefix, kind)
}

func (s *RedisStore) LoadToken(ctx context.Context) (string, error) {
	data, err := s.get(ctx, "token")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *RedisStore) SaveToken(ctx context.Context, token string) error {
	return s.set(ctx, "token", []byte(token))
}

func (s *RedisStore) ClearToken(ctx context.Context) error {
	return s.del(ctx, "token")
}

func (s *RedisStore) LoadProfile(ctx context.Context) ([]byte, error) {
	return s.get(ctx, "profile")
}

func (s *RedisStore) SaveProfile(ctx context.Context, profile []byte) error {
	return s.set(ctx, "profile", profile)
}

func (s *RedisStore) ClearProfile(ctx context.Context) error {
	return s.del(ctx, "profile")
}

func (s *RedisStore) get(ctx context.Context, kind string) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.key(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("identity: get %s: %w", kind, err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

func (s *RedisStore) set(ctx context.Context, kind string, data []byte) error {
	if err := s.redis.Set(ctx, s.key(kind), data, 0).Err(); err != nil {
		return fmt.Errorf("identity: set %s: %w", kind, err)
	}
	return nil
}

func (s *RedisStore) del(ctx context.Context, kind string) error {
	if err := s.redis.Del(ctx, s.key(kind)).Err(); err != nil {
		return fmt.Errorf("identity: delete %s: %w", kind, err)
	}
	return nil
}
