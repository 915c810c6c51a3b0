package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/model/chat"
)

// DefaultSubject is the NATS subject conversation updates are published on.
const DefaultSubject = "concierge.conversation.persisted"

// ConversationPersisted announces that a visitor transcript reached the durable store.
type ConversationPersisted struct {
	VisitorID    string    `json:"visitorId"`
	MessageCount int       `json:"messageCount"`
	LastRole     chat.Role `json:"lastRole,omitempty"`
	PersistedAt  time.Time `json:"persistedAt"`
}

// NewConversationPersisted summarises a saved transcript.
func NewConversationPersisted(visitorID string, transcript chat.Transcript) ConversationPersisted {
	evt := ConversationPersisted{
		VisitorID:    visitorID,
		MessageCount: len(transcript),
		PersistedAt:  time.Now().UTC(),
	}
	if last, ok := transcript.Last(); ok {
		evt.LastRole = last.Role
	}
	return evt
}

// Publisher delivers conversation events.
type Publisher interface {
	PublishConversationPersisted(ctx context.Context, evt ConversationPersisted) error
	Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishConversationPersisted(context.Context, ConversationPersisted) error {
	return nil
}

func (NopPublisher) Close() {}

// NATSPublisher publishes events as JSON on a core NATS subject.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNATSPublisher connects to natsURL; reconnects are retried indefinitely.
func NewNATSPublisher(natsURL, subject string, logger *zap.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("events")
	if subject == "" {
		subject = DefaultSubject
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("concierge-api"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NATSPublisher{nc: nc, subject: subject}, nil
}

func (p *NATSPublisher) PublishConversationPersisted(_ context.Context, evt ConversationPersisted) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	_ = p.nc.Drain()
}
