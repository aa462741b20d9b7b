package rdx

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

// CacheSet stores a value with a TTL; failures only log, callers never
// depend on the cache being up.
func CacheSet(ctx context.Context, key, val string, ttl time.Duration) {
	if err := Conn.Set(ctx, key, val, ttl).Err(); err != nil {
		log.Printf("rdx: cache set %s failed: %v", key, err)
	}
}

// CacheGet returns the cached value or "" on miss/error.
func CacheGet(ctx context.Context, key string) string {
	val, err := Conn.Get(ctx, key).Result()
	if err != nil {
		return ""
	}
	return val
}

func CacheDel(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := Conn.Del(ctx, keys...).Err(); err != nil {
		log.Printf("rdx: cache del failed: %v", err)
	}
}

// AcquireLock takes a best-effort distributed lock; returns false when
// someone else holds it.
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return Conn.SetNX(ctx, "lock:"+key, "1", ttl).Result()
}

func ReleaseLock(ctx context.Context, key string) {
	if err := Conn.Del(ctx, "lock:"+key).Err(); err != nil {
		log.Printf("rdx: release lock %s failed: %v", key, err)
	}
}
