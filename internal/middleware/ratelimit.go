package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"Podyom/pkg/errors"
	"Podyom/pkg/logger"
	"Podyom/pkg/response"
	"Podyom/storage/redis"
)

// RateLimitConfig drives the sliding-window limiter.
type RateLimitConfig struct {
	// Window length in seconds.
	Window int
	// Requests allowed inside one window.
	MaxRequests int
	// Redis key prefix for this limiter.
	KeyPrefix string
	// Key by authenticated identity when available.
	ByIdentity bool
	// Key by client IP.
	ByIP bool
	// Block duration in seconds once the window overflows.
	BlockDuration int
}

// DefaultRateLimitConfig covers the event ingestion endpoints. Bots
// forward whole groups, so the ceiling is generous.
var DefaultRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   600,
	KeyPrefix:     "rate:limit",
	ByIdentity:    true,
	ByIP:          true,
	BlockDuration: 300,
}

// RateLimiter is a redis zset sliding-window limiter.
type RateLimiter struct {
	config RateLimitConfig
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config: config,
	}
}

func (rl *RateLimiter) getKey(ctx context.Context, c *app.RequestContext) string {
	var identifier string

	if rl.config.ByIdentity {
		if identity, exists := GetIdentity(ctx, c); exists {
			identifier = fmt.Sprintf("id:%s", identity)
		}
	}

	if identifier == "" && rl.config.ByIP {
		identifier = fmt.Sprintf("ip:%s", c.ClientIP())
	}

	return redis.Key(rl.config.KeyPrefix, identifier)
}

// Allow checks the sliding window: prune, add, count in one pipeline.
func (rl *RateLimiter) Allow(ctx context.Context, c *app.RequestContext) (bool, int, error) {
	key := rl.getKey(ctx, c)
	now := time.Now()
	windowStart := now.Add(-time.Duration(rl.config.Window) * time.Second)

	client := redis.Client()
	pipe := client.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))

	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})

	zcardCmd := pipe.ZCard(ctx, key)

	pipe.Expire(ctx, key, time.Duration(rl.config.Window+10)*time.Second)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcardCmd.Val())
	allowed := count <= rl.config.MaxRequests

	return allowed, count, nil
}

func (rl *RateLimiter) Block(ctx context.Context, c *app.RequestContext) error {
	key := redis.Key(rl.config.KeyPrefix+"block", rl.getKey(ctx, c))
	return redis.Client().Set(ctx, key, "1", time.Duration(rl.config.BlockDuration)*time.Second).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, c *app.RequestContext) (bool, error) {
	key := redis.Key(rl.config.KeyPrefix+"block", rl.getKey(ctx, c))
	result, err := redis.Client().Exists(ctx, key).Result()
	return result > 0, err
}

// RateLimitMiddleware builds the middleware for one limiter config.
func RateLimitMiddleware(config RateLimitConfig) app.HandlerFunc {
	limiter := NewRateLimiter(config)

	return func(ctx context.Context, c *app.RequestContext) {
		blocked, err := limiter.IsBlocked(ctx, c)
		if err != nil {
			logger.Logger.Error("Failed to check block status", zap.Error(err))
			c.AbortWithStatus(consts.StatusInternalServerError)
			return
		}

		if blocked {
			c.AbortWithStatus(consts.StatusTooManyRequests)
			response.Error(ctx, c, errors.TooManyRequests)
			return
		}

		allowed, count, err := limiter.Allow(ctx, c)
		if err != nil {
			logger.Logger.Error("Failed to check rate limit", zap.Error(err))
			c.AbortWithStatus(consts.StatusInternalServerError)
			return
		}

		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(config.MaxRequests-count))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(config.Window)*time.Second).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, c); err != nil {
				logger.Logger.Error("Failed to block caller", zap.Error(err))
			}

			c.AbortWithStatus(consts.StatusTooManyRequests)
			response.Error(ctx, c, errors.TooManyRequests)
			return
		}

		c.Next(ctx)
	}
}

// EventsRateLimitMiddleware covers the inbound bot event endpoints.
func EventsRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(DefaultRateLimitConfig)
}

// AuthRateLimitMiddleware covers admin login and token refresh.
func AuthRateLimitMiddleware() app.HandlerFunc {
	config := RateLimitConfig{
		Window:        60,
		MaxRequests:   5,
		KeyPrefix:     "auth:rate",
		ByIdentity:    false,
		ByIP:          true,
		BlockDuration: 900,
	}
	return RateLimitMiddleware(config)
}

// SweepRateLimitMiddleware keeps admin sweep triggers from stacking.
func SweepRateLimitMiddleware() app.HandlerFunc {
	config := RateLimitConfig{
		Window:        60,
		MaxRequests:   6,
		KeyPrefix:     "sweep:rate",
		ByIdentity:    true,
		ByIP:          false,
		BlockDuration: 120,
	}
	return RateLimitMiddleware(config)
}
