package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "oauth:state:"

// StateStore keeps single-use OAuth state tokens. Redis is used when available so
// several instances share the same states; otherwise states live in process memory.
type StateStore struct {
	rc  *redis.Client
	now func() time.Time

	mu  sync.Mutex
	mem map[string]time.Time
}

// NewStateStore returns a store that prefers rc when it is not nil.
func NewStateStore(rc *redis.Client) *StateStore {
	return &StateStore{rc: rc, now: time.Now, mem: map[string]time.Time{}}
}

// Save stores state for ttl.
func (s *StateStore) Save(ctx context.Context, state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if s.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.rc.Set(ctx, stateKeyPrefix+state, "1", ttl).Err(); err == nil {
			return
		}
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	// states that were never consumed are dropped once expired
	for k, expiresAt := range s.mem {
		if !now.Before(expiresAt) {
			delete(s.mem, k)
		}
	}
	s.mem[state] = now.Add(ttl)
}

// Consume validates and removes state. It returns false for unknown or expired states.
func (s *StateStore) Consume(ctx context.Context, state string) bool {
	if s.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if v, err := s.rc.GetDel(ctx, stateKeyPrefix+state).Result(); err == nil {
			return v != ""
		}
	}
	s.mu.Lock()
	expiresAt, ok := s.mem[state]
	if ok {
		delete(s.mem, state)
	}
	s.mu.Unlock()
	return ok && s.now().Before(expiresAt)
}
