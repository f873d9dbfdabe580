package analytics

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is optional. Without REDIS_ADDR every request hits Postgres directly,
// which is fine for small deployments.
var Cache *redis.Client

const cacheTTL = 60 * time.Second

func OpenCacheFromEnv() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASS"),
	})
}

// cachedJSON looks up key in the cache and unmarshals the hit into out.
// A nil client or any cache error reads as a miss.
func cachedJSON(ctx context.Context, key string, out interface{}) bool {
	if Cache == nil {
		return false
	}
	s, err := Cache.Get(ctx, key).Result()
	if err != nil || s == "" {
		return false
	}
	return json.Unmarshal([]byte(s), out) == nil
}

func storeJSON(ctx context.Context, key string, v interface{}) {
	if Cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = Cache.Set(ctx, key, string(b), cacheTTL).Err()
}
