package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps each value as a redis hash, fields taken from `redis` struct tags.
type RedisStorage struct {
	rdb redis.UniversalClient
}

func (s *RedisStorage) Conn() redis.UniversalClient {
	return s.rdb
}

func (s *RedisStorage) Get(ctx context.Context, key string, val any) error {
	cmd := s.rdb.HGetAll(ctx, key)
	if err := cmd.Err(); err != nil {
		return err
	}
	if len(cmd.Val()) == 0 {
		return ErrNotFound
	}
	return cmd.Scan(val)
}

// Set stores val under key. A negative expiresIn keeps the key forever.
func (s *RedisStorage) Set(ctx context.Context, key string, val any, expiresIn time.Duration) error {
	if expiresIn < 0 {
		return s.rdb.HSet(ctx, key, val).Err()
	}
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, val)
	pipe.Expire(ctx, key, expiresIn)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	deleted, err := s.rdb.Del(ctx, key).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// Take reads and deletes key in one MULTI block, so of several concurrent
// callers only one gets the value.
func (s *RedisStorage) Take(ctx context.Context, key string, val any) error {
	pipe := s.rdb.TxPipeline()
	get := pipe.HGetAll(ctx, key)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if len(get.Val()) == 0 {
		return ErrNotFound
	}
	return get.Scan(val)
}

func NewRedisStorage(db redis.UniversalClient) *RedisStorage {
	return &RedisStorage{
		rdb: db,
	}
}
