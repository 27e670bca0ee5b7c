package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis is a StatsCache shared by every API instance. Keys written for a user
// are tracked in a set so Invalidate can drop them together.
type Redis struct {
	client *redis.Client
}

// NewRedis connects using a redis:// URL and pings the server.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{client: client}, nil
}

func userSetKey(userID int64) string {
	return fmt.Sprintf("stats:%d:keys", userID)
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, userID int64, key string, value []byte, ttl time.Duration) error {
	setKey := userSetKey(userID)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, value, ttl)
		p.SAdd(ctx, setKey, key)
		p.Expire(ctx, setKey, 2*ttl)
		return nil
	})
	return err
}

func (r *Redis) Invalidate(ctx context.Context, userID int64) error {
	setKey := userSetKey(userID)
	keys, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return err
	}
	return r.client.Del(ctx, append(keys, setKey)...).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
