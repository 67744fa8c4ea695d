package store

import (
	"context"
	"errors"
	"fmt"

	"wishlist/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores the snapshot as one string value. SET replaces the
// whole value atomically.
type RedisBackend struct {
	rdb *redis.Client
	key string
}

func NewRedisBackend(ctx context.Context, addr string) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisBackend{rdb: rdb, key: stateKey}, nil
}

func (b *RedisBackend) Load(ctx context.Context) (*model.State, error) {
	data, err := b.rdb.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeState(data)
}

func (b *RedisBackend) Save(ctx context.Context, st *model.State) error {
	data, err := encodeState(st)
	if err != nil {
		return err
	}
	if err := b.rdb.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}
