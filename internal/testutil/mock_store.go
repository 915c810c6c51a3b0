package testutil

import (
	"context"
	"sync"

	"github.com/eventsastudio/concierge/backend/internal/model/chat"
	"github.com/eventsastudio/concierge/backend/internal/store"
)

// MockStore wraps an in-memory store with injectable failures and call counts.
type MockStore struct {
	*store.MemoryStore

	mu           sync.Mutex
	PersistErr   error
	PersistCalls int
}

// NewMockStore returns an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{MemoryStore: store.NewMemoryStore()}
}

func (m *MockStore) Persist(ctx context.Context, visitorID string, messages chat.Transcript) error {
	m.mu.Lock()
	m.PersistCalls++
	err := m.PersistErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.MemoryStore.Persist(ctx, visitorID, messages)
}

// Calls returns how many times Persist was invoked.
func (m *MockStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PersistCalls
}
