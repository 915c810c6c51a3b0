// Package session drives one visitor's conversation on the client: it keeps
// the local transcript cache in step with the chat transport.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/analysis/language"
	"github.com/eventsastudio/concierge/backend/internal/model/chat"
	"github.com/eventsastudio/concierge/backend/internal/model/persona"
	chatsvc "github.com/eventsastudio/concierge/backend/internal/service/chat"
	"github.com/eventsastudio/concierge/backend/internal/transcript"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrSendInProgress = errors.New("a message is already being sent")
	ErrClosed         = errors.New("session is closed")
)

// Transport delivers one exchange to the conversation service.
type Transport interface {
	Send(ctx context.Context, req chatsvc.SendRequest) (chatsvc.SendResponse, error)
}

// State is the orchestrator's position in the send cycle.
type State int

const (
	StateIdle State = iota
	StateSending
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config wires a Session.
type Config struct {
	VisitorID string
	// Language is the UI language; it picks the greeting and fallback lines.
	Language  language.Code
	Cache     *transcript.Cache
	Transport Transport
	Personas  persona.Store
	Logger    *zap.Logger
}

// Session is the conversation orchestrator for a single visitor. At most one
// send is outstanding at any time.
type Session struct {
	visitorID string
	language  language.Code
	cache     *transcript.Cache
	transport Transport
	personas  persona.Store
	logger    *zap.Logger

	mu    sync.Mutex
	state State
}

// New validates cfg and returns an idle Session.
func New(cfg Config) (*Session, error) {
	if cfg.VisitorID == "" {
		return nil, errors.New("visitor id is required")
	}
	if cfg.Cache == nil {
		return nil, errors.New("transcript cache is required")
	}
	if cfg.Transport == nil {
		return nil, errors.New("transport is required")
	}
	personas := cfg.Personas
	if personas == nil {
		personas = persona.NewMemoryStore(persona.Seed())
	}
	code, ok := language.Parse(string(cfg.Language))
	if !ok {
		code = language.Default
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		visitorID: cfg.VisitorID,
		language:  code,
		cache:     cfg.Cache,
		transport: cfg.Transport,
		personas:  personas,
		logger:    logger.Named("session").With(zap.String("visitor_id", cfg.VisitorID)),
		state:     StateIdle,
	}, nil
}

// VisitorID returns the identifier the session was opened for.
func (s *Session) VisitorID() string { return s.visitorID }

// State reports the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open loads the cached transcript, seeding a single greeting when it is empty.
func (s *Session) Open() chat.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := s.cache.Load(s.visitorID)
	if len(messages) > 0 {
		return messages
	}
	return s.seedGreeting()
}

// Transcript returns the cached transcript.
func (s *Session) Transcript() chat.Transcript {
	return s.cache.Load(s.visitorID)
}

// Send delivers text and returns the assistant turn added to the transcript.
// Transport failures are answered with a localized apology rather than an
// error.
func (s *Session) Send(ctx context.Context, text string) (chat.Message, error) {
	if err := s.begin(text); err != nil {
		return chat.Message{}, err
	}

	prior := s.cache.Load(s.visitorID)
	if _, err := s.cache.Append(s.visitorID, chat.NewMessage(chat.RoleUser, text)); err != nil {
		s.logger.Warn("failed to cache user message", zap.Error(err))
	}
	if err := s.cache.SaveLanguage(s.language); err != nil {
		s.logger.Debug("failed to cache language", zap.Error(err))
	}

	resp, err := s.transport.Send(ctx, chatsvc.SendRequest{
		Message:             text,
		ConversationHistory: prior,
		VisitorID:           s.visitorID,
	})

	content := resp.Message
	if err != nil {
		s.logger.Warn("chat transport failed", zap.Error(err))
		content = s.personas.Resolve(s.language).Apology
	} else if !chat.NonEmpty(content) {
		content = s.personas.Resolve(s.language).Apology
	}
	reply := chat.NewMessage(chat.RoleAssistant, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return chat.Message{}, ErrClosed
	}
	s.state = StateIdle

	if _, err := s.cache.Append(s.visitorID, reply); err != nil {
		s.logger.Warn("failed to cache assistant reply", zap.Error(err))
	}
	return reply, nil
}

func (s *Session) begin(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return ErrClosed
	case StateSending:
		return ErrSendInProgress
	}
	if !chat.NonEmpty(text) {
		return ErrEmptyMessage
	}
	s.state = StateSending
	return nil
}

// Clear drops the cached transcript and reseeds the greeting. The durable
// record on the server is left alone.
func (s *Session) Clear() (chat.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return nil, ErrClosed
	case StateSending:
		return nil, ErrSendInProgress
	}

	if err := s.cache.Clear(s.visitorID); err != nil {
		return nil, err
	}
	return s.seedGreeting(), nil
}

// Close detaches the session. A reply that arrives afterwards is dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
}

// seedGreeting must be called with s.mu held.
func (s *Session) seedGreeting() chat.Transcript {
	greeting := chat.Message{
		ID:        chat.GreetingID,
		Role:      chat.RoleAssistant,
		Content:   s.personas.Resolve(s.language).Greeting,
		Timestamp: time.Now(),
	}
	messages := chat.Transcript{greeting}
	if err := s.cache.Save(s.visitorID, messages); err != nil {
		s.logger.Warn("failed to cache greeting", zap.Error(err))
	}
	return messages
}
