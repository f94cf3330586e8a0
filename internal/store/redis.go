package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "quiz:"

// Redis keeps entries under a prefix with a sliding TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// ConnectRedis parses a redis:// URL and pings the server.
func ConnectRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, &Error{Backend: BackendRedis, Message: "invalid redis url", Cause: err}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &Error{Backend: BackendRedis, Message: "failed to ping redis", Cause: err}
	}
	return NewRedis(client, ttl), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, redisPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, redisPrefix+key, value, r.ttl).Err()
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisPrefix+key).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
