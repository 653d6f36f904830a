package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "fleet:collection:"

// RedisDocuments keeps each collection in the string key
// fleet:collection:<collection>.
type RedisDocuments struct {
	client redis.Cmdable
}

func NewRedisDocuments(client redis.Cmdable) *RedisDocuments {
	return &RedisDocuments{client: client}
}

func (r *RedisDocuments) Fetch(ctx context.Context, c Collection) ([]byte, error) {
	b, err := r.client.Get(ctx, redisKeyPrefix+string(c)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", c, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", c, err)
	}
	return b, nil
}

func (r *RedisDocuments) Put(ctx context.Context, c Collection, doc []byte) error {
	if err := r.client.Set(ctx, redisKeyPrefix+string(c), doc, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c, err)
	}
	return nil
}
