// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TestingTB is the subset of testing.TB used by these helpers.
type TestingTB interface {
	Helper()
	Skipf(format string, args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
	Cleanup(fn func())
}

const defaultRedisAddr = "localhost:6379"

func truthy(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// FixedTimeFunc returns a clock that always reports t.
func FixedTimeFunc(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// WaitClosed fails the test unless ch is closed (or receives) within timeout.
func WaitClosed(t TestingTB, ch <-chan struct{}, timeout time.Duration) {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("timed out after %s waiting for channel", timeout)
	}
}

// RedisAddr returns REDIS_ADDR, falling back to a local default.
func RedisAddr() string {
	if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
		return addr
	}
	return defaultRedisAddr
}

// SetupTestRedis connects to the test Redis and closes the client on cleanup.
// The test is skipped when Redis is unreachable unless TEST_REQUIRE_REDIS is set,
// in which case it fails. TEST_REDIS_DB selects the logical database.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	db := 0
	if raw := os.Getenv("TEST_REDIS_DB"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			t.Fatalf("TEST_REDIS_DB=%q: %v", raw, err)
		}
		db = n
	}

	addr := RedisAddr()
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if truthy("TEST_REQUIRE_REDIS") {
			t.Fatalf("redis required at %s: %v", addr, err)
		}
		t.Skipf("redis not available at %s: %v", addr, err)
		return nil
	}

	t.Cleanup(func() { _ = client.Close() })
	return client
}

// RedisKeyPrefix returns a key prefix unique to the calling test and deletes
// every key under it on cleanup, so tests can share one database.
func RedisKeyPrefix(t TestingTB, client redis.UniversalClient) string {
	t.Helper()
	prefix := fmt.Sprintf("eventnav:test:%s:", uuid.NewString())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			if err := client.Del(ctx, iter.Val()).Err(); err != nil {
				t.Logf("cleanup %s: %v", iter.Val(), err)
			}
		}
		if err := iter.Err(); err != nil {
			t.Logf("cleanup scan %s: %v", prefix, err)
		}
	})
	return prefix
}
