package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when it still holds the caller's
// token, so a lock that expired and was re-acquired by another run is never
// released by the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisRunLock provides a per-key mutual exclusion lock backed by Redis
// SET NX. The TTL bounds how long a crashed holder can block new runs.
type RedisRunLock struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRunLock creates a run lock store with the given key prefix
// (e.g. "run:lock:") and time-to-live.
func NewRedisRunLock(client *redis.Client, prefix string, ttl time.Duration) *RedisRunLock {
	return &RedisRunLock{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock for key. On success it returns an opaque
// token that must be presented to Release. acquired is false when another
// holder currently owns the lock.
func (l *RedisRunLock) Acquire(ctx context.Context, key string) (string, bool, error) {
	token, err := newLockToken()
	if err != nil {
		return "", false, fmt.Errorf("failed to generate lock token: %w", err)
	}

	ok, err := l.client.SetNX(ctx, l.buildKey(key), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

// Release frees the lock for key if token still owns it. Releasing an
// expired or stolen lock is a no-op, not an error.
func (l *RedisRunLock) Release(ctx context.Context, key string, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.buildKey(key)}, token).Err(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

func (l *RedisRunLock) buildKey(key string) string {
	return l.prefix + key
}

func newLockToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
