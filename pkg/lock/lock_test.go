package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// memoryRedis is an in-memory stand-in for the Redis commands the manager
// uses. TTLs are not simulated; tests drive expiry by deleting keys directly.
type memoryRedis struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{keys: make(map[string]string)}
}

func (m *memoryRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.keys[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.keys[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (m *memoryRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(keys) == 1 && len(args) == 1 && m.keys[keys[0]] == args[0].(string) {
		delete(m.keys, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (m *memoryRedis) deleteKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
}

func (m *memoryRedis) hasKey(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	return ok
}

func TestTryAcquire_Success(t *testing.T) {
	m := NewManager(newMemoryRedis())

	l, err := m.TryAcquire(context.Background(), "resource", time.Minute)

	assert.NoError(t, err)
	assert.Equal(t, "resource", l.Key())
}

func TestTryAcquire_Contention(t *testing.T) {
	m := NewManager(newMemoryRedis())

	_, err := m.TryAcquire(context.Background(), "resource", time.Minute)
	assert.NoError(t, err)

	_, err = m.TryAcquire(context.Background(), "resource", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestRelease_FreesTheLock(t *testing.T) {
	m := NewManager(newMemoryRedis())
	ctx := context.Background()

	l, err := m.TryAcquire(ctx, "resource", time.Minute)
	assert.NoError(t, err)

	assert.NoError(t, l.Release(ctx))

	// Lock is free again
	_, err = m.TryAcquire(ctx, "resource", time.Minute)
	assert.NoError(t, err)
}

func TestRelease_NotHeldAfterTakeover(t *testing.T) {
	r := newMemoryRedis()
	m := NewManager(r)
	ctx := context.Background()

	l, err := m.TryAcquire(ctx, "resource", time.Minute)
	assert.NoError(t, err)

	// TTL expiry and takeover by another holder
	r.deleteKey("resource")
	_, err = m.TryAcquire(ctx, "resource", time.Minute)
	assert.NoError(t, err)

	// The original holder's release must not free the new holder's lock
	assert.ErrorIs(t, l.Release(ctx), ErrNotHeld)
	assert.True(t, r.hasKey("resource"))
}

func TestRelease_Twice(t *testing.T) {
	m := NewManager(newMemoryRedis())
	ctx := context.Background()

	l, _ := m.TryAcquire(ctx, "resource", time.Minute)

	assert.NoError(t, l.Release(ctx))
	assert.ErrorIs(t, l.Release(ctx), ErrNotHeld)
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	m := NewManager(newMemoryRedis())
	ctx := context.Background()

	held, err := m.TryAcquire(ctx, "resource", time.Minute)
	assert.NoError(t, err)

	go func() {
		time.Sleep(60 * time.Millisecond)
		_ = held.Release(ctx)
	}()

	l, err := m.Acquire(ctx, "resource", time.Minute, time.Second)
	assert.NoError(t, err)
	assert.NotNil(t, l)
}

func TestAcquire_TimesOut(t *testing.T) {
	m := NewManager(newMemoryRedis())
	ctx := context.Background()

	_, err := m.TryAcquire(ctx, "resource", time.Minute)
	assert.NoError(t, err)

	start := time.Now()
	_, err = m.Acquire(ctx, "resource", time.Minute, 120*time.Millisecond)

	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAcquire_ZeroWaitIsSingleAttempt(t *testing.T) {
	m := NewManager(newMemoryRedis())
	ctx := context.Background()

	_, err := m.TryAcquire(ctx, "resource", time.Minute)
	assert.NoError(t, err)

	_, err = m.Acquire(ctx, "resource", time.Minute, 0)
	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestAcquire_ContextCancelled(t *testing.T) {
	m := NewManager(newMemoryRedis())

	_, err := m.TryAcquire(context.Background(), "resource", time.Minute)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = m.Acquire(ctx, "resource", time.Minute, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
