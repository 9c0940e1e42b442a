package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jacobmichels/portal/config"
	"github.com/redis/go-redis/v9"
)

var _ Store = RedisStore{}

type RedisStore struct {
	client *redis.Client
}

// connects to redis with short timeouts and fails fast if it cannot be pinged
func newRedisStore(ctx context.Context, cfg config.Redis) (RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return RedisStore{}, fmt.Errorf("failed to ping redis: %w", err)
	}

	return RedisStore{client}, nil
}

func (r RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return value, true, nil
}

func (r RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (r RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (r RedisStore) Close() error {
	return r.client.Close()
}
