package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/dao-engine/pkg/game"
)

// MockStorage is an in-memory Storage for testing. Sessions are deep
// copied on the way in and out so tests cannot share mutable state with
// the code under test.
type MockStorage struct {
	PingFunc          func(ctx context.Context) error
	SaveSessionFunc   func(ctx context.Context, s *game.Session) error
	LoadSessionFunc   func(ctx context.Context, id uuid.UUID) (*game.Session, error)
	DeleteSessionFunc func(ctx context.Context, id uuid.UUID) error

	mu       sync.Mutex
	sessions map[uuid.UUID]*game.Session

	SaveCalls   int
	LoadCalls   int
	DeleteCalls int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new in-memory mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]*game.Session),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveSession(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	m.SaveCalls++
	fn := m.SaveSessionFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, s)
	}

	cp, err := s.DeepCopy()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[s.ID] = cp
	m.mu.Unlock()
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*game.Session, error) {
	m.mu.Lock()
	m.LoadCalls++
	fn := m.LoadSessionFunc
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	if !ok {
		return nil, nil
	}
	return s.DeepCopy()
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	m.DeleteCalls++
	fn := m.DeleteSessionFunc
	delete(m.sessions, id)
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	return nil
}
