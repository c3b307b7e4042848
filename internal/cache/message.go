package cache

import (
	"context"
	"time"

	"Podyom/storage/redis"
)

// Worker-side message idempotency. SETNX marks a message as being
// processed; completion extends the TTL, failure removes the mark so
// the redelivery can retry.

func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	return redis.Client().SetNX(ctx, redis.Key("msg", messageID), "processing", ttl).Result()
}

func MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	return redis.Client().Set(ctx, redis.Key("msg", messageID), "done", ttl).Err()
}

func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	return redis.Client().Del(ctx, redis.Key("msg", messageID)).Err()
}
