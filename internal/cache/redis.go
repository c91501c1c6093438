package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const keyPrefix = "neighborhelp:nickname:"

// RedisCache is a NicknameCache shared by every server instance. Redis
// failures degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client, ttl: opts.TTL, logger: logger}, nil
}

func (c *RedisCache) Get(ctx context.Context, userID string) (string, bool) {
	v, err := c.client.Get(ctx, keyPrefix+userID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("nickname cache get failed", zap.String("user_id", userID), zap.Error(err))
		}
		return "", false
	}
	return v, true
}

func (c *RedisCache) Set(ctx context.Context, userID, nickname string) {
	if err := c.client.Set(ctx, keyPrefix+userID, nickname, c.ttl).Err(); err != nil {
		c.logger.Warn("nickname cache set failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (c *RedisCache) Delete(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		c.logger.Warn("nickname cache delete failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
