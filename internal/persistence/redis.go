package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ralovishna/money-manager-api/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// RateDecision is the result of a fixed-window rate check.
type RateDecision struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

// RateLimiter counts attempts per key in fixed windows stored in Redis.
// Redis failures let the request through.
type RateLimiter struct {
	client  *redis.Client
	logger  *zap.Logger
	prefix  string
	timeout time.Duration
}

// NewRateLimiter builds a limiter over the shared client.
func NewRateLimiter(r *Redis, logger *zap.Logger) *RateLimiter {
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &RateLimiter{
		client:  client,
		logger:  logger,
		prefix:  "money-manager:ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

// Allow records one attempt for key and reports whether it stays within limit.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) RateDecision {
	if rl == nil || rl.client == nil || limit <= 0 {
		return RateDecision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.logger.Error("redis rate limiter error", zap.String("op", "incr"), zap.Error(err))
		return RateDecision{Allowed: true}
	}
	if counter == 1 {
		if err := rl.client.Expire(ctx, redisKey, window).Err(); err != nil {
			rl.logger.Error("redis rate limiter error", zap.String("op", "expire"), zap.Error(err))
		}
	}
	ttl, err := rl.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return RateDecision{
		Allowed:    int(counter) <= limit,
		Count:      int(counter),
		RetryAfter: ttl,
	}
}
