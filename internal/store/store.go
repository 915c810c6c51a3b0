package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/model/chat"
)

// ErrNotFound is returned when no record exists for a visitor.
var ErrNotFound = errors.New("conversation not found")

// ErrVisitorRequired is returned when an operation is given an empty visitor id.
var ErrVisitorRequired = errors.New("visitor id is required")

// TranscriptStore is the durable, visitor-keyed conversation store.
type TranscriptStore interface {
	// Persist creates the record or replaces its messages. Persisting an
	// identical transcript leaves the record unchanged.
	Persist(ctx context.Context, visitorID string, messages chat.Transcript) error
	Retrieve(ctx context.Context, visitorID string) (chat.ConversationRecord, error)
	// List returns every record, most recently updated first.
	List(ctx context.Context) ([]chat.ConversationRecord, error)
	Delete(ctx context.Context, visitorID string) error
	Close() error
}

// Open selects a backend from a database URL: postgres://, sqlite:// or
// memory:// (also the empty string).
func Open(ctx context.Context, databaseURL string, logger *zap.Logger) (TranscriptStore, error) {
	url := strings.TrimSpace(databaseURL)
	switch {
	case url == "" || strings.HasPrefix(url, "memory://"):
		return NewMemoryStore(), nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgresStore(ctx, url, logger)
	case strings.HasPrefix(url, "sqlite://"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(url, "sqlite://"), logger)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme: %q", url)
	}
}

func checkVisitor(visitorID string) error {
	if strings.TrimSpace(visitorID) == "" {
		return ErrVisitorRequired
	}
	return nil
}
