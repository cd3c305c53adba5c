package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"lifeloop/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyedMutex serializes writers per key inside one process.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

// Acquire blocks until key is free or ctx is done. The returned release func
// is safe to call more than once.
func (m *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		m.drop(key, l)
		return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			m.drop(key, l)
		})
	}, nil
}

func (m *KeyedMutex) drop(key string, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

// Held reports how many keys currently have holders or waiters.
func (m *KeyedMutex) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// Deletes the lock only while it still carries our token
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX) shared by every
// process pointed at the same Redis. A holder that outlives TTL loses the lock.
type RedisLocker struct {
	Client     *redis.Client
	TTL        time.Duration
	RetryDelay time.Duration
	Prefix     string
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		Client:     client,
		TTL:        ttl,
		RetryDelay: 50 * time.Millisecond,
		Prefix:     "lock:",
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.Prefix + key
	token := uuid.New().String()

	for {
		ok, err := l.Client.SetNX(ctx, redisKey, token, l.TTL).Result()
		if err != nil {
			utils.TrackError("lock", "redis_setnx_failed")
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			utils.TrackError("lock", "acquire_timeout")
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's ctx may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := unlockScript.Run(releaseCtx, l.Client, []string{redisKey}, token).Err(); err != nil {
				log.Printf("Failed to release lock %s: %v", key, err)
				utils.TrackError("lock", "redis_release_failed")
			}
		})
	}, nil
}
