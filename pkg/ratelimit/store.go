package ratelimit

import (
	"context"
	"sync"
)

// Store persists quota state between requests. The Redis implementation
// shares state across processes using the same access token; the memory
// implementation scopes it to one process.
type Store interface {
	// Load returns the stored state and whether any state exists.
	Load(ctx context.Context) (*RateLimitState, bool, error)

	// Save replaces the stored state.
	Save(ctx context.Context, state *RateLimitState) error
}

// MemoryStore keeps quota state in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	state *RateLimitState
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored state.
func (m *MemoryStore) Load(ctx context.Context) (*RateLimitState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == nil {
		return nil, false, nil
	}

	state := *m.state
	return &state, true, nil
}

// Save stores a copy of the given state.
func (m *MemoryStore) Save(ctx context.Context, state *RateLimitState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *state
	m.state = &copied
	return nil
}
