package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 12 * time.Hour

// Redis is a Cache backed by a shared redis instance so that every process in
// a multi-instance deployment observes the same invalidations.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a redis-backed cache from a redis URL.
func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client, ttl: defaultTTL}, nil
}

// NewRedisWithClient wraps an existing client, mainly for tests.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, ttl: defaultTTL}
}

// GetOrPopulate returns the cached value for key, populating it on a miss.
func (r *Redis) GetOrPopulate(ctx context.Context, key string, populate Populate) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", err
	}

	fresh, err := populate(ctx)
	if err != nil {
		return "", err
	}

	if err := r.client.Set(ctx, key, fresh, r.ttl).Err(); err != nil {
		return "", err
	}
	return fresh, nil
}

// Invalidate clears the given keys.
func (r *Redis) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Close releases the underlying redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Cache = (*Redis)(nil)
