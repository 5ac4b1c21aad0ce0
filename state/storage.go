package state

import (
	"context"
	"sync"
)

// Storage persists per-user state names and payload data.
// An unset state reads back as the empty string, not an error.
type Storage interface {
	State(ctx context.Context, userID int64) (string, error)
	SetState(ctx context.Context, userID int64, state string) error
	Data(ctx context.Context, userID int64) (map[string]any, error)
	SetData(ctx context.Context, userID int64, data map[string]any) error
	Delete(ctx context.Context, userID int64) error
}

// MemoryStorage keeps state in process memory. Safe for concurrent use.
type MemoryStorage struct {
	mu     sync.RWMutex
	states map[int64]string
	data   map[int64]map[string]any
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		states: make(map[int64]string),
		data:   make(map[int64]map[string]any),
	}
}

func (s *MemoryStorage) State(_ context.Context, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[userID], nil
}

func (s *MemoryStorage) SetState(_ context.Context, userID int64, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = state
	return nil
}

// Data returns a copy; callers never observe the live map.
func (s *MemoryStorage) Data(_ context.Context, userID int64) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.data[userID]))
	for k, v := range s.data[userID] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStorage) SetData(_ context.Context, userID int64, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = data
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	delete(s.data, userID)
	return nil
}
