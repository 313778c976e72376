package cache

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when the context ends before the lock is taken.
var ErrLockTimeout = errors.New("lock wait timed out")

// Locker serializes work on a key. The returned release func must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX + owner token).
// The TTL bounds how long a crashed holder can block a pair.
type RedisLocker struct {
	client  *redis.Client
	ttl     time.Duration
	minWait time.Duration
	maxWait time.Duration
}

func NewRedisLocker(rc *RedisCache, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: rc.Client, ttl: ttl, minWait: 5 * time.Millisecond, maxWait: 100 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	wait := l.minWait

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
			}
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return func() {
				// release on a fresh context so a cancelled request still frees the pair
				rctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(rctx, l.client, []string{key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		case <-time.After(wait):
		}
		if wait *= 2; wait > l.maxWait {
			wait = l.maxWait
		}
	}
}

// LocalLocker serializes keys inside one process with striped mutexes.
// Used when Redis is disabled (single-instance and local runs).
type LocalLocker struct {
	stripes [256]sync.Mutex
}

func NewLocalLocker() *LocalLocker { return &LocalLocker{} }

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	m.Lock()
	return m.Unlock, nil
}
