package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/model/chat"
)

// DefaultRecordTTL bounds how long a cached record may be served.
const DefaultRecordTTL = 10 * time.Minute

// CachedStore is a read-through Redis cache in front of another store. Cache
// failures are logged and never fail the wrapped operation.
type CachedStore struct {
	next   TranscriptStore
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedStore pings redis and wraps next.
func NewCachedStore(ctx context.Context, next TranscriptStore, client *redis.Client, ttl time.Duration, logger *zap.Logger) (*CachedStore, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultRecordTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{next: next, client: client, ttl: ttl, logger: logger.Named("store.cache")}, nil
}

func (s *CachedStore) recordKey(visitorID string) string {
	return "concierge:conversation:" + visitorID
}

func (s *CachedStore) Persist(ctx context.Context, visitorID string, messages chat.Transcript) error {
	if err := s.next.Persist(ctx, visitorID, messages); err != nil {
		return err
	}
	s.invalidate(ctx, visitorID)
	return nil
}

func (s *CachedStore) Retrieve(ctx context.Context, visitorID string) (chat.ConversationRecord, error) {
	data, err := s.client.Get(ctx, s.recordKey(visitorID)).Bytes()
	switch {
	case err == nil:
		var rec chat.ConversationRecord
		if jsonErr := json.Unmarshal(data, &rec); jsonErr == nil {
			return rec, nil
		}
		s.invalidate(ctx, visitorID)
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("cache read failed", zap.String("visitor_id", visitorID), zap.Error(err))
	}

	rec, err := s.next.Retrieve(ctx, visitorID)
	if err != nil {
		return rec, err
	}

	if encoded, jsonErr := json.Marshal(rec); jsonErr == nil {
		if setErr := s.client.Set(ctx, s.recordKey(visitorID), encoded, s.ttl).Err(); setErr != nil {
			s.logger.Warn("cache write failed", zap.String("visitor_id", visitorID), zap.Error(setErr))
		}
	}
	return rec, nil
}

func (s *CachedStore) List(ctx context.Context) ([]chat.ConversationRecord, error) {
	return s.next.List(ctx)
}

func (s *CachedStore) Delete(ctx context.Context, visitorID string) error {
	err := s.next.Delete(ctx, visitorID)
	s.invalidate(ctx, visitorID)
	return err
}

func (s *CachedStore) Close() error {
	clientErr := s.client.Close()
	if err := s.next.Close(); err != nil {
		return err
	}
	return clientErr
}

func (s *CachedStore) invalidate(ctx context.Context, visitorID string) {
	if err := s.client.Del(ctx, s.recordKey(visitorID)).Err(); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("visitor_id", visitorID), zap.Error(err))
	}
}
