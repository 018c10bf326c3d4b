package ignorelist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores the record under a single string key.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisBackend connects to redisURL and checks the connection.
func NewRedisBackend(redisURL, key string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.ReadTimeout = 5 * time.Second
	opts.WriteTimeout = 5 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisBackend{client: client, key: key}, nil
}

func (b *RedisBackend) Read(ctx context.Context) (string, error) {
	record, err := b.client.Get(ctx, b.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return record, err
}

func (b *RedisBackend) Write(ctx context.Context, record string) error {
	return b.client.Set(ctx, b.key, record, 0).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
