//go:build integration

package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedisWindow_Integration_SharedQuota(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()

	// Two limiter instances over the same key, as two connector
	// processes would have.
	a := NewRedisWindow(redisClient, "quota:integration", 4, time.Second)
	b := NewRedisWindow(redisClient, "quota:integration", 4, time.Second)

	// Fill the shared window from both sides.
	for i := 0; i < 2; i++ {
		if err := a.Acquire(ctx); err != nil {
			t.Fatalf("Acquire on a failed: %v", err)
		}
		if err := b.Acquire(ctx); err != nil {
			t.Fatalf("Acquire on b failed: %v", err)
		}
	}

	// The fifth acquire must wait for a slot to leave the window.
	start := time.Now()
	if err := a.Acquire(ctx); err != nil {
		t.Fatalf("Fifth acquire failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("Expected the fifth acquire to wait, took %v", elapsed)
	}
}

func TestRedisWindow_Integration_ConcurrentAcquires(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	limiter := NewRedisWindow(redisClient, "quota:concurrent", 5, time.Second)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(ctx); err != nil {
				t.Errorf("Acquire failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// 10 acquires through a 5-per-second window need a second round.
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("Expected the second batch to wait a full window, took %v", elapsed)
	}
}

func TestRedisWindow_Integration_KeyExpiry(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	limiter := NewRedisWindow(redisClient, "quota:expiry", 10, time.Second)

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	ttl, err := redisClient.TTL(ctx, "quota:expiry").Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > 2*time.Second {
		t.Errorf("Expected the window key to expire shortly after the window, got TTL %v", ttl)
	}
}
