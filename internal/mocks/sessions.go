package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/tasklist-api/internal/platform/redis"
)

// MockSessionStore is an in-memory test double for redis.SessionStore.
// TTLs are recorded but never enforced.
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]uuid.UUID

	SaveErr     error
	ValidateErr error
	RotateErr   error
	DeleteErr   error
}

var _ redis.SessionStore = (*MockSessionStore)(nil)

// NewMockSessionStore creates an empty MockSessionStore.
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]uuid.UUID)}
}

func (m *MockSessionStore) Save(ctx context.Context, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[tokenID] = userID
	return nil
}

func (m *MockSessionStore) Validate(ctx context.Context, userID uuid.UUID, tokenID string) error {
	if m.ValidateErr != nil {
		return m.ValidateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.sessions[tokenID]
	if !ok || owner != userID {
		return redis.ErrSessionNotFound
	}
	return nil
}

func (m *MockSessionStore) Rotate(ctx context.Context, userID uuid.UUID, oldTokenID, newTokenID string, ttl time.Duration) error {
	if m.RotateErr != nil {
		return m.RotateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.sessions[oldTokenID]
	if !ok || owner != userID {
		return redis.ErrSessionNotFound
	}
	delete(m.sessions, oldTokenID)
	m.sessions[newTokenID] = userID
	return nil
}

func (m *MockSessionStore) Delete(ctx context.Context, userID uuid.UUID, tokenID string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tokenID)
	return nil
}

func (m *MockSessionStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for tokenID, owner := range m.sessions {
		if owner == userID {
			delete(m.sessions, tokenID)
		}
	}
	return nil
}

// Has reports whether a session exists for the given token ID.
func (m *MockSessionStore) Has(tokenID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[tokenID]
	return ok
}
