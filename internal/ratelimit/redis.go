package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisFixedWindow shares counters between instances. When Redis fails the
// decision comes from an in-process fallback.
type RedisFixedWindow struct {
	client   *redis.Client
	window   time.Duration
	prefix   string
	fallback *FixedWindow
}

func NewRedisFixedWindow(client *redis.Client, d time.Duration) *RedisFixedWindow {
	if d <= 0 {
		d = time.Minute
	}
	return &RedisFixedWindow{
		client:   client,
		window:   d,
		prefix:   "ratelimit:",
		fallback: NewFixedWindow(d),
	}
}

func (l *RedisFixedWindow) Allow(ctx context.Context, key string, limit int) Decision {
	if limit <= 0 {
		limit = 1
	}
	if l.client == nil {
		return l.fallback.Allow(ctx, key, limit)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) < 2 {
		log.Printf("[RATELIMIT] redis unavailable, using local counter: %v", err)
		return l.fallback.Allow(ctx, key, limit)
	}

	count, ttlMs := res[0], res[1]
	if ttlMs < 0 {
		ttlMs = l.window.Milliseconds()
	}
	return decide(int(count), limit, time.Now().UTC().Add(time.Duration(ttlMs)*time.Millisecond))
}
