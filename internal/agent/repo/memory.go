package repo

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/zus-planner-poc/server/internal/agent/model"
)

// MemorySessionStore keeps conversation state in process memory. It serves
// tests and single-node runs without extra infrastructure; swap in the Redis
// store for anything longer lived.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string][]byte{}}
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*model.ChatState, error) {
	s.mu.RLock()
	b, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var state model.ChatState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *MemorySessionStore) Save(ctx context.Context, state *model.ChatState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[state.SessionID] = b
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

var _ SessionStore = (*MemorySessionStore)(nil)
