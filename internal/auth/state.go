package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateTTL bounds how long an issued CSRF state stays valid. A consent
// round-trip normally completes within seconds; anything older is stale.
const StateTTL = 10 * time.Minute

// StateStore issues and verifies single-use CSRF states for the OAuth
// redirect round-trip. A state is consumed on first verification, so a
// replayed callback always fails.
type StateStore interface {
	Issue(ctx context.Context, provider string) (string, error)
	Verify(ctx context.Context, provider, state string) (bool, error)
}

// NewStateStore returns a Redis-backed store, or an in-memory store with the
// same semantics when Redis is unavailable (single-process deployments).
func NewStateStore(rdb *redis.Client) StateStore {
	if rdb == nil {
		return newMemoryStateStore()
	}
	return &redisStateStore{rdb: rdb}
}

func newState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func stateKey(provider, state string) string {
	return fmt.Sprintf("oauth_state:%s:%s", provider, state)
}

type redisStateStore struct {
	rdb *redis.Client
}

func (s *redisStateStore) Issue(ctx context.Context, provider string) (string, error) {
	state, err := newState()
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, stateKey(provider, state), "1", StateTTL).Err(); err != nil {
		return "", fmt.Errorf("storing state: %w", err)
	}
	return state, nil
}

func (s *redisStateStore) Verify(ctx context.Context, provider, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	// DEL doubles as the single-use guard: only the first callback sees 1.
	deleted, err := s.rdb.Del(ctx, stateKey(provider, state)).Result()
	if err != nil {
		return false, fmt.Errorf("verifying state: %w", err)
	}
	return deleted == 1, nil
}

type memoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

func newMemoryStateStore() *memoryStateStore {
	return &memoryStateStore{states: make(map[string]time.Time), now: time.Now}
}

func (s *memoryStateStore) Issue(_ context.Context, provider string) (string, error) {
	state, err := newState()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	s.states[stateKey(provider, state)] = s.now().Add(StateTTL)
	return state, nil
}

func (s *memoryStateStore) Verify(_ context.Context, provider, state string) (bool, error) {
	if state == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := stateKey(provider, state)
	expiry, ok := s.states[key]
	if !ok {
		return false, nil
	}
	delete(s.states, key)
	return s.now().Before(expiry), nil
}

func (s *memoryStateStore) purgeLocked() {
	now := s.now()
	for key, expiry := range s.states {
		if now.After(expiry) {
			delete(s.states, key)
		}
	}
}
