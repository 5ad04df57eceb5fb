package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore persists workspace state per session, in Redis when available.
type StateStore struct {
	client   *redis.Client
	ttl      time.Duration
	defaults func() State

	mu  sync.RWMutex
	mem map[string][]byte
}

// NewStateStore builds a store; a nil client keeps state in process memory.
func NewStateStore(client *redis.Client, ttl time.Duration, defaults func() State) *StateStore {
	if defaults == nil {
		defaults = func() State { return DefaultState(nil) }
	}
	return &StateStore{client: client, ttl: ttl, defaults: defaults, mem: make(map[string][]byte)}
}

// Load returns the saved state for a session, or the default state.
func (s *StateStore) Load(ctx context.Context, session string) (State, error) {
	if err := ValidateSession(session); err != nil {
		return State{}, err
	}
	raw, found, err := s.read(ctx, keyState(session))
	if err != nil {
		return State{}, err
	}
	if !found {
		return s.defaults(), nil
	}
	return Restore(raw)
}

// Save validates and stores the state snapshot.
func (s *StateStore) Save(ctx context.Context, session string, state State) (State, error) {
	if err := ValidateSession(session); err != nil {
		return State{}, err
	}
	if state.Expanded == nil {
		state.Expanded = []string{}
	}
	raw, err := state.Snapshot()
	if err != nil {
		return State{}, err
	}
	if err := s.write(ctx, keyState(session), raw); err != nil {
		return State{}, err
	}
	return state, nil
}

func (s *StateStore) read(ctx context.Context, key string) ([]byte, bool, error) {
	if s.client == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		raw, ok := s.mem[key]
		return raw, ok, nil
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *StateStore) write(ctx context.Context, key string, raw []byte) error {
	if s.client == nil {
		s.mu.Lock()
		s.mem[key] = raw
		s.mu.Unlock()
		return nil
	}
	return s.client.Set(ctx, key, raw, s.ttl).Err()
}
