package testutil

import (
	"context"
	"sync"

	"github.com/eventsastudio/concierge/backend/internal/events"
)

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []events.ConversationPersisted
}

func (p *RecordingPublisher) PublishConversationPersisted(_ context.Context, evt events.ConversationPersisted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, evt)
	return nil
}

func (p *RecordingPublisher) Close() {}

// Published returns a copy of the recorded events.
func (p *RecordingPublisher) Published() []events.ConversationPersisted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.ConversationPersisted(nil), p.Events...)
}
