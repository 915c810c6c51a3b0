package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eventsastudio/concierge/backend/internal/model/chat"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]chat.ConversationRecord
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]chat.ConversationRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Persist(_ context.Context, visitorID string, messages chat.Transcript) error {
	if err := checkVisitor(visitorID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.records[visitorID]
	if !ok {
		rec = chat.ConversationRecord{VisitorID: visitorID, CreatedAt: now, UpdatedAt: now}
	} else if rec.Messages.Equal(messages) {
		return nil
	} else {
		rec.UpdatedAt = now
	}
	rec.Messages = messages.Clone()
	s.records[visitorID] = rec
	return nil
}

func (s *MemoryStore) Retrieve(_ context.Context, visitorID string) (chat.ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[visitorID]
	if !ok {
		return chat.ConversationRecord{}, ErrNotFound
	}
	rec.Messages = rec.Messages.Clone()
	return rec, nil
}

func (s *MemoryStore) List(_ context.Context) ([]chat.ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.ConversationRecord, 0, len(s.records))
	for _, rec := range s.records {
		rec.Messages = rec.Messages.Clone()
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, visitorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[visitorID]; !ok {
		return ErrNotFound
	}
	delete(s.records, visitorID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
