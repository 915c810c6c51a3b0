// Package transcript caches each visitor's conversation on the device so a
// returning visitor sees their history before any network round trip.
package transcript

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/analysis/language"
	"github.com/eventsastudio/concierge/backend/internal/device"
	"github.com/eventsastudio/concierge/backend/internal/model/chat"
)

const (
	chatKeyPrefix = "events_chat_"
	// LanguageKey holds the visitor's UI language.
	LanguageKey = "events_language"
)

// Key returns the storage key holding a visitor's transcript.
func Key(visitorID string) string {
	return chatKeyPrefix + visitorID
}

// Cache reads and writes transcripts in device storage. It holds no state of
// its own; every call goes to storage.
type Cache struct {
	storage device.Storage
	logger  *zap.Logger
}

// NewCache returns a Cache over storage.
func NewCache(storage device.Storage, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{storage: storage, logger: logger.Named("transcript")}
}

// Load returns the cached transcript, or an empty one when nothing is cached
// or the stored blob cannot be decoded.
func (c *Cache) Load(visitorID string) chat.Transcript {
	raw, ok, err := c.storage.Get(Key(visitorID))
	if err != nil {
		c.logger.Debug("transcript cache read failed", zap.String("visitor_id", visitorID), zap.Error(err))
		return chat.Transcript{}
	}
	if !ok || raw == "" {
		return chat.Transcript{}
	}

	var messages chat.Transcript
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		c.logger.Warn("discarding undecodable transcript", zap.String("visitor_id", visitorID), zap.Error(err))
		return chat.Transcript{}
	}
	if err := validate(messages); err != nil {
		c.logger.Warn("discarding malformed transcript", zap.String("visitor_id", visitorID), zap.Error(err))
		return chat.Transcript{}
	}
	return messages
}

// validate rejects transcripts the conversation service would refuse.
func validate(messages chat.Transcript) error {
	for i, m := range messages {
		if !m.Role.Valid() {
			return fmt.Errorf("message %d: unsupported role %q", i, m.Role)
		}
		if m.Role == chat.RoleUser && !chat.NonEmpty(m.Content) {
			return fmt.Errorf("message %d: empty user message", i)
		}
	}
	return nil
}

// Save overwrites the cached transcript.
func (c *Cache) Save(visitorID string, messages chat.Transcript) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := c.storage.Set(Key(visitorID), string(data)); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// Append adds msg to the end of the cached transcript and writes the result
// back. The returned transcript is valid even when the write fails.
func (c *Cache) Append(visitorID string, msg chat.Message) (chat.Transcript, error) {
	next := c.Load(visitorID).Append(msg)
	return next, c.Save(visitorID, next)
}

// Clear removes the cached transcript.
func (c *Cache) Clear(visitorID string) error {
	if err := c.storage.Remove(Key(visitorID)); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	return nil
}

// Visitors lists every visitor with a cached transcript.
func (c *Cache) Visitors() ([]string, error) {
	keys, err := c.storage.Keys(chatKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list cached transcripts: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id := strings.TrimPrefix(k, chatKeyPrefix); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SaveLanguage records the UI language.
func (c *Cache) SaveLanguage(code language.Code) error {
	return c.storage.Set(LanguageKey, string(code))
}

// LoadLanguage returns the stored UI language, or the default when unset or
// unrecognised.
func (c *Cache) LoadLanguage() language.Code {
	raw, ok, err := c.storage.Get(LanguageKey)
	if err != nil || !ok {
		return language.Default
	}
	code, ok := language.Parse(raw)
	if !ok {
		return language.Default
	}
	return code
}
