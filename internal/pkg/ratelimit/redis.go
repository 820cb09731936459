package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/bankvault/internal/pkg/clock"
)

// takeScript refills and draws from a token bucket stored as a hash.
//
// KEYS[1] bucket key, ARGV[1] now in unix millis, ARGV[2] refill interval in
// millis, ARGV[3] burst. Returns 1 when a token was taken, 0 otherwise.
var takeScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])
local burst = tonumber(ARGV[3])
local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = burst
  ts = now
end
if now > ts then
  tokens = math.min(burst, tokens + (now - ts) / interval)
  ts = now
end
local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end
redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', tostring(ts))
redis.call('PEXPIRE', KEYS[1], interval * burst)
return allowed
`)

// RedisClient is the subset of go-redis used by Redis.
type RedisClient interface {
	redis.Scripter
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis is a Limiter whose buckets live in Redis. Idle buckets expire on
// their own once fully refilled, so no sweeper is needed.
type Redis struct {
	client   RedisClient
	clock    clock.Clocker
	prefix   string
	interval time.Duration
	burst    int
}

// NewRedis allows burst events per key, refilling one every interval. A
// non-positive interval disables limiting, matching NewKeyed.
func NewRedis(client RedisClient, interval time.Duration, burst int, clk clock.Clocker, prefix string) *Redis {
	if burst < 1 {
		burst = 1
	}
	if clk == nil {
		clk = clock.New()
	}
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &Redis{client: client, clock: clk, prefix: prefix, interval: interval, burst: burst}
}

// Allow implements Limiter.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	if r.interval <= 0 {
		return true, nil
	}

	res, err := takeScript.Run(ctx, r.client, []string{r.prefix + key},
		r.clock.Now().UnixMilli(), r.interval.Milliseconds(), r.burst).Int()
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis take: %w", err)
	}

	return res == 1, nil
}

// Reset implements Limiter.
func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("ratelimit: redis reset: %w", err)
	}
	return nil
}
