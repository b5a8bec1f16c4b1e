package lock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CycleLock guards the accrual cycle: at most one holder at a time.
// TryAcquire never blocks; a false return means another cycle is running and
// the caller should skip, not queue.
type CycleLock interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LocalLock is the single-process implementation: a boolean flag flipped
// atomically around the cycle.
type LocalLock struct {
	held atomic.Bool
}

func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

func (l *LocalLock) TryAcquire(ctx context.Context) (bool, error) {
	return l.held.CompareAndSwap(false, true), nil
}

func (l *LocalLock) Release(ctx context.Context) error {
	l.held.Store(false)
	return nil
}

// RedisLease upgrades the lock to a storage-backed lease for multi-process
// deployments. The TTL time-boxes a crashed holder so it cannot starve
// future cycles; the owner token prevents releasing someone else's lease.
type RedisLease struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	owner  string
}

func NewRedisLease(client *redis.Client, key string, ttl time.Duration) *RedisLease {
	return &RedisLease{
		client: client,
		key:    key,
		ttl:    ttl,
		owner:  uuid.NewString(),
	}
}

func (l *RedisLease) TryAcquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *RedisLease) Release(ctx context.Context) error {
	// Owner check and delete must be one step; a plain GET+DEL could delete
	// a lease re-acquired by another process after ours expired.
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Err()
}
