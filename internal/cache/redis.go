package cache

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"Podyom/storage/redis"
)

// RedisDedup implements Dedup with SETNX so all server instances share
// one mark space.
type RedisDedup struct {
	client *goredis.Client
}

func NewRedisDedup(client *goredis.Client) *RedisDedup {
	return &RedisDedup{client: client}
}

func (r *RedisDedup) TryMark(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, redis.Key("dedup", key), 1, ttl).Result()
}

// TryAcquireSweepLock takes the named sweep's run lock. Sweeps are
// idempotent, the lock only avoids wasted duplicate runs.
func TryAcquireSweepLock(ctx context.Context, client *goredis.Client, name string, ttl time.Duration) (bool, error) {
	return client.SetNX(ctx, redis.Key("sweep", name, "lock"), 1, ttl).Result()
}

// ReleaseSweepLock drops the lock early when a run finishes before the
// TTL.
func ReleaseSweepLock(ctx context.Context, client *goredis.Client, name string) error {
	return client.Del(ctx, redis.Key("sweep", name, "lock")).Err()
}
