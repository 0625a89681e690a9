// Package idem remembers Idempotency-Key headers so a retried send is not stored twice.
package idem

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "idem:"

type Store interface {
	// PutNX claims key for ttl. It reports false when the key is already claimed.
	PutNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type redisStore struct{ r *redis.Client }

func NewRedis(rdb *redis.Client) Store {
	return &redisStore{r: rdb}
}

func (s *redisStore) PutNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.r.SetNX(ctx, keyPrefix+key, "1", ttl).Result()
}

// Memory is a process-local Store, used when no Redis address is configured.
type Memory struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) PutNX(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if exp, ok := m.keys[keyPrefix+key]; ok && now.Before(exp) {
		return false, nil
	}
	m.keys[keyPrefix+key] = now.Add(ttl)
	return true, nil
}

// Sweep drops expired keys and returns how many it removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for k, exp := range m.keys {
		if !now.Before(exp) {
			delete(m.keys, k)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until done is closed.
func (m *Memory) RunSweeper(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
