package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/go-travel-planner/internal/token"
)

type redisRenewals struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisRenewals создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "travel:renew:".
func NewRedisRenewals(ctx context.Context, redisURL, prefix string) (Renewals, error) {
	if prefix == "" {
		prefix = "travel:renew:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisRenewals{rdb: rdb, prefix: prefix}, nil
}

func (c *redisRenewals) key(k string) string { return c.prefix + k }

// Remember использует SET NX PX: запись создаёт ровно один из конкурирующих запросов.
func (c *redisRenewals) Remember(ctx context.Context, key string, tok token.Token, ttl time.Duration) (token.Token, error) {
	if ttl <= 0 || key == "" {
		return tok, nil
	}

	created, err := c.rdb.SetNX(ctx, c.key(key), encode(tok), ttl).Result()
	if err != nil {
		return tok, err
	}

	if created {
		return tok, nil
	}

	raw, err := c.rdb.Get(ctx, c.key(key)).Result()
	if err != nil {
		// Запись успела истечь между SETNX и GET — используем свой токен.
		if errors.Is(err, redis.Nil) {
			return tok, nil
		}

		return tok, err
	}

	winner, err := decode(raw)
	if err != nil {
		return tok, err
	}

	return winner, nil
}

func (c *redisRenewals) Forget(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	return c.rdb.Del(ctx, c.key(key)).Err()
}

func (c *redisRenewals) Close() error { return c.rdb.Close() }
