package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig tunes the Redis-backed registry.
type RedisConfig struct {
	// Prefix namespaces all keys. Defaults to "gg:sess".
	Prefix string
	// InvalidationRetention is the TTL on invalidation marks.
	// Zero keeps them for 24h.
	InvalidationRetention time.Duration
}

type redisRegistry struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// touchScript rewrites last_activity in place and slides the key TTL,
// so concurrent touches never clobber other fields.
var touchScript = redis.NewScript(`
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local obj = cjson.decode(data)
obj["last_activity"] = tonumber(ARGV[1])
redis.call("SET", KEYS[1], cjson.encode(obj), "PX", ARGV[2])
return 1
`)

// freshScript rewrites fresh_auth_at in place, keeping the TTL.
var freshScript = redis.NewScript(`
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local ttl = redis.call("PTTL", KEYS[1])
local obj = cjson.decode(data)
obj["fresh_auth_at"] = tonumber(ARGV[1])
if ttl > 0 then
  redis.call("SET", KEYS[1], cjson.encode(obj), "PX", ttl)
else
  redis.call("SET", KEYS[1], cjson.encode(obj))
end
return 1
`)

// NewRedisRegistry creates a Registry backed by Redis. Records are
// stored as JSON with a sliding TTL; the invalidation set is a marker
// key per dead session id.
func NewRedisRegistry(client redis.UniversalClient, cfg RedisConfig) Registry {
	if cfg.Prefix == "" {
		cfg.Prefix = "gg:sess"
	}
	if cfg.InvalidationRetention <= 0 {
		cfg.InvalidationRetention = 24 * time.Hour
	}
	return &redisRegistry{
		client:    client,
		prefix:    cfg.Prefix,
		retention: cfg.InvalidationRetention,
	}
}

func (r *redisRegistry) recordKey(id string) string   { return r.prefix + ":s:" + id }
func (r *redisRegistry) userKey(userID string) string { return r.prefix + ":u:" + userID }
func (r *redisRegistry) deadKey(id string) string     { return r.prefix + ":x:" + id }

func (r *redisRegistry) Save(ctx context.Context, rec *Record, ttl time.Duration) error {
	raw, err := json.Marshal(toWire(rec))
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.recordKey(rec.SessionID), raw, ttl)
	pipe.SAdd(ctx, r.userKey(rec.UserID), rec.SessionID)
	if ttl > 0 {
		pipe.Expire(ctx, r.userKey(rec.UserID), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *redisRegistry) Get(ctx context.Context, sessionID string) (*Record, error) {
	raw, err := r.client.Get(ctx, r.recordKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return fromWire(w), nil
}

func (r *redisRegistry) Touch(ctx context.Context, sessionID string, at time.Time, ttl time.Duration) error {
	n, err := touchScript.Run(ctx, r.client,
		[]string{r.recordKey(sessionID)},
		at.Unix(), ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *redisRegistry) SetFreshAuth(ctx context.Context, sessionID string, at time.Time) error {
	n, err := freshScript.Run(ctx, r.client,
		[]string{r.recordKey(sessionID)},
		at.Unix(),
	).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *redisRegistry) Delete(ctx context.Context, sessionID string) error {
	rec, err := r.Get(ctx, sessionID)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.recordKey(sessionID))
	pipe.SRem(ctx, r.userKey(rec.UserID), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *redisRegistry) Invalidate(ctx context.Context, sessionID string) error {
	rec, err := r.Get(ctx, sessionID)
	if err != nil && err != ErrNotFound {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.deadKey(sessionID), "1", r.retention)
	pipe.Del(ctx, r.recordKey(sessionID))
	if rec != nil {
		pipe.SRem(ctx, r.userKey(rec.UserID), sessionID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *redisRegistry) IsInvalidated(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.deadKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

func (r *redisRegistry) SessionsForUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ids, nil
}

func (r *redisRegistry) InvalidateUser(ctx context.Context, userID string) (int, error) {
	ids, err := r.SessionsForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	pipe := r.client.TxPipeline()
	for _, id := range ids {
		pipe.Set(ctx, r.deadKey(id), "1", r.retention)
		pipe.Del(ctx, r.recordKey(id))
	}
	pipe.Del(ctx, r.userKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return len(ids), nil
}
