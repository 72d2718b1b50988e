package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript implements the prune/count/record sequence atomically on
// a sorted set scored by microsecond timestamps. Returns {1, remaining}
// on admit, {0, oldest_score} on reject.
const allowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
if count >= max then
  local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
  return {0, tonumber(oldest[2])}
end
redis.call("ZADD", key, now, tostring(now) .. "-" .. tostring(count))
redis.call("PEXPIRE", key, window / 1000 * 2)
return {1, max - count - 1}
`

var allowLua = redis.NewScript(allowScript)

// RedisConfig tunes the Redis-backed store.
type RedisConfig struct {
	Prefix string
	Now    func() time.Time
}

type redisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a Store backed by Redis sorted sets, for
// deployments where several engine instances share one budget.
func NewRedisStore(client redis.UniversalClient, cfg RedisConfig) Store {
	if cfg.Prefix == "" {
		cfg.Prefix = "gg:rl"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &redisStore{
		client: client,
		prefix: cfg.Prefix,
		now:    cfg.Now,
	}
}

func (r *redisStore) key(key string) string {
	return r.prefix + ":" + key
}

func (r *redisStore) Allow(ctx context.Context, key string, max int, window time.Duration) (Decision, error) {
	if max <= 0 {
		return Decision{Allowed: true}, nil
	}
	nowMicro := r.now().UnixMicro()

	res, err := allowLua.Run(ctx, r.client,
		[]string{r.key(key)},
		nowMicro, window.Microseconds(), max,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply", ErrRedisUnavailable)
	}

	if res[0] == 1 {
		return Decision{Allowed: true, Remaining: int(res[1])}, nil
	}

	retry := time.Duration(res[1]-nowMicro)*time.Microsecond + window
	if retry < 0 {
		retry = 0
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}

func (r *redisStore) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Sweep is a no-op for the Redis store: window keys carry a PEXPIRE so
// Redis reclaims stale keys on its own.
func (r *redisStore) Sweep(context.Context, time.Duration) (int, error) {
	return 0, nil
}
