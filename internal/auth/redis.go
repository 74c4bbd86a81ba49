package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// ConnectRedis parses url and pings the server, retrying with exponential
// backoff while it is unreachable.
func ConnectRedis(ctx context.Context, url string, retries int) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	backoff := retry.WithMaxRetries(uint64(max(retries, 0)), retry.NewExponential(250*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisSessionStore returns a store that keeps sessions under the
// scs:session: prefix. Redis expires keys at the session deadline, so no
// cleanup loop is needed.
func NewRedisSessionStore(client *redis.Client) *goredisstore.RedisStore {
	return goredisstore.New(client)
}

// RedisPing adapts client to a health check.
func RedisPing(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
