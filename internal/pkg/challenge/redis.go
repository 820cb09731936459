package challenge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/bankvault/internal/pkg/clock"
)

// verifyScript compares, expires and consumes a challenge in one step.
//
// KEYS[1] challenge key, ARGV[1] candidate, ARGV[2] now in unix millis.
// Returns 1 on a match, 0 otherwise.
var verifyScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return 0
end
local sep = string.find(v, '|', 1, true)
if not sep then
  redis.call('DEL', KEYS[1])
  return 0
end
local code = string.sub(v, 1, sep - 1)
local exp = tonumber(string.sub(v, sep + 1))
if exp == nil or tonumber(ARGV[2]) > exp then
  redis.call('DEL', KEYS[1])
  return 0
end
if code ~= ARGV[1] then
  return 0
end
redis.call('DEL', KEYS[1])
return 1
`)

// Redis is a Store shared by every process connected to the same Redis.
type Redis struct {
	client RedisClient
	clock  clock.Clocker
	prefix string
	opts   options
}

// RedisClient is the subset of go-redis used by Redis.
type RedisClient interface {
	redis.Scripter
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// NewRedis creates a Redis-backed store. Keys are namespaced with prefix.
func NewRedis(client RedisClient, clk clock.Clocker, prefix string, opts ...Option) *Redis {
	if prefix == "" {
		prefix = "challenge:"
	}
	return &Redis{
		client: client,
		clock:  clk,
		prefix: prefix,
		opts:   newOptions(opts...),
	}
}

// Issue implements Store. The value and its expiry are written in one SET.
func (r *Redis) Issue(ctx context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}

	code, err := generateCode(r.opts.entropy)
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := r.clock.Now().Add(r.opts.ttl)
	value := code + "|" + strconv.FormatInt(expiresAt.UnixMilli(), 10)

	// the redis TTL only garbage-collects; expiry is decided by verify
	if err := r.client.Set(ctx, r.prefix+key, value, r.opts.ttl+time.Minute).Err(); err != nil {
		return "", time.Time{}, fmt.Errorf("challenge: redis set: %w", err)
	}

	return code, expiresAt, nil
}

// Verify implements Store.
func (r *Redis) Verify(ctx context.Context, key, candidate string) (bool, error) {
	if key == "" {
		return false, nil
	}

	res, err := verifyScript.Run(ctx, r.client, []string{r.prefix + key}, candidate, r.clock.Now().UnixMilli()).Int()
	if err != nil {
		return false, fmt.Errorf("challenge: redis verify: %w", err)
	}

	return res == 1, nil
}
