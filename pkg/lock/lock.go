package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotAcquired is returned when the lock could not be acquired within
	// the caller's wait budget. It signals contention, not failure: callers
	// should surface it as retryable.
	ErrNotAcquired = errors.New("lock not acquired")

	// ErrNotHeld is returned when releasing a lock this holder no longer owns
	// (expired and taken over, or already released).
	ErrNotHeld = errors.New("lock not held")
)

// retryInterval is the pause between acquisition attempts while waiting.
const retryInterval = 50 * time.Millisecond

// Lua script for safe release: only the holder that set the token may delete
// the key, so an expired lock taken over by another caller is never released
// out from under them.
const luaReleaseLock = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

// redisClient is the subset of *redis.Client the lock manager uses.
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Manager hands out TTL-bounded mutexes backed by Redis SET NX.
type Manager struct {
	redis redisClient
}

// NewManager creates a new lock manager
func NewManager(client redisClient) *Manager {
	return &Manager{redis: client}
}

// Lock is a held mutex. The token identifies this holder; the key auto-expires
// after its TTL if never released.
type Lock struct {
	manager *Manager
	key     string
	token   string
}

// Key returns the resource key this lock guards.
func (l *Lock) Key() string {
	return l.key
}

// TryAcquire makes a single acquisition attempt.
func (m *Manager) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.New().String()

	ok, err := m.redis.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return &Lock{manager: m, key: key, token: token}, nil
}

// Acquire attempts to take the lock, retrying until maxWait elapses. A zero
// maxWait degrades to a single attempt. Returns ErrNotAcquired on timeout so
// callers can reject the request as retryable rather than fatal.
func (m *Manager) Acquire(ctx context.Context, key string, ttl, maxWait time.Duration) (*Lock, error) {
	deadline := time.Now().Add(maxWait)

	for {
		l, err := m.TryAcquire(ctx, key, ttl)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, ErrNotAcquired) {
			return nil, err
		}

		if time.Now().Add(retryInterval).After(deadline) {
			return nil, ErrNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// Release frees the lock if this holder still owns it.
func (l *Lock) Release(ctx context.Context) error {
	res, err := l.manager.redis.Eval(ctx, luaReleaseLock, []string{l.key}, l.token).Result()
	if err != nil {
		return err
	}

	deleted, ok := res.(int64)
	if !ok || deleted == 0 {
		return ErrNotHeld
	}
	return nil
}
