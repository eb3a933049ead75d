package service

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	// Use DB 15 for tests
	opts, err := redis.ParseURL("redis://localhost:6379/15")
	if err != nil {
		t.Skip("Redis not available for testing")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skip("Redis not available for testing")
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestRateLimiter_FailClosed(t *testing.T) {
	dead := redis.NewClient(&redis.Options{Addr: "localhost:1", DialTimeout: 100 * time.Millisecond})
	defer dead.Close()

	limiter := NewRateLimiter(dead)
	allowed, _ := limiter.CheckLimit(context.Background(), "test:ip-dead", 10, 10*time.Second)
	assert.False(t, allowed, "limiter should deny when redis is unreachable")
}

func TestRateLimiter_Basic(t *testing.T) {
	client := testRedisClient(t)
	ctx := context.Background()
	client.FlushDB(ctx)

	limiter := NewRateLimiter(client)

	t.Run("allows requests within limit", func(t *testing.T) {
		key := "test:ip1"
		limit := 3
		window := 10 * time.Second

		for i := 0; i < limit; i++ {
			allowed, _ := limiter.CheckLimit(ctx, key, limit, window)
			assert.True(t, allowed, "Request %d should be allowed", i+1)
		}

		allowed, resetAt := limiter.CheckLimit(ctx, key, limit, window)
		assert.False(t, allowed, "Request should be rate limited")
		assert.True(t, resetAt.After(time.Now()), "Reset time should be in future")
	})

	t.Run("separate keys have separate budgets", func(t *testing.T) {
		window := 10 * time.Second

		allowed, _ := limiter.CheckLimit(ctx, "test:ip2", 1, window)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckLimit(ctx, "test:ip2", 1, window)
		assert.False(t, allowed)

		allowed, _ = limiter.CheckLimit(ctx, "test:ip3", 1, window)
		assert.True(t, allowed, "another key should not be affected")
	})
}
