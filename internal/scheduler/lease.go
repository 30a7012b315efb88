package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Lease grants one holder at a time the right to run a named job.
type Lease interface {
	// Acquire returns ok=false when another holder has the lease.
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

// RedisLease coordinates replicas through SET NX with a TTL.
type RedisLease struct {
	client *redis.Client
	owner  string
}

func NewRedisLease(client *redis.Client) *RedisLease {
	return &RedisLease{client: client, owner: uuid.NewString()}
}

// releaseScript deletes the key only if this owner still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *RedisLease) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	key := "sweep:lock:" + name
	ok, err := l.client.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	release := func() {
		_ = releaseScript.Run(context.Background(), l.client, []string{key}, l.owner).Err()
	}
	return release, true, nil
}

// LocalLease serializes jobs inside one process.
type LocalLease struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLease() *LocalLease {
	return &LocalLease{held: make(map[string]bool)}
}

func (l *LocalLease) Acquire(_ context.Context, name string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, false, nil
	}
	l.held[name] = true
	return func() {
		l.mu.Lock()
		delete(l.held, name)
		l.mu.Unlock()
	}, true, nil
}
