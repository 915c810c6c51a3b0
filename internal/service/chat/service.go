package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/analysis/language"
	"github.com/eventsastudio/concierge/backend/internal/events"
	"github.com/eventsastudio/concierge/backend/internal/model/chat"
	"github.com/eventsastudio/concierge/backend/internal/model/persona"
	"github.com/eventsastudio/concierge/backend/internal/store"
)

var (
	ErrMessageRequired = errors.New("message is required")
	ErrInvalidRole     = errors.New("conversation history contains an unsupported role")
)

// DefaultPersistTimeout bounds the durable write that follows a reply.
const DefaultPersistTimeout = 5 * time.Second

// Responder produces assistant replies. *ai.Service implements it.
type Responder interface {
	GenerateReply(ctx context.Context, code language.Code, prior chat.Transcript, userMessage string) (string, error)
	StreamReply(ctx context.Context, code language.Code, prior chat.Transcript, userMessage string, onDelta func(string)) (string, error)
}

// SendRequest is the single remote procedure of the chat transport.
type SendRequest struct {
	Message             string          `json:"message"`
	ConversationHistory chat.Transcript `json:"conversationHistory"`
	VisitorID           string          `json:"visitorId,omitempty"`
}

// Validate checks the request before any model call.
func (r SendRequest) Validate() error {
	if !chat.NonEmpty(r.Message) {
		return ErrMessageRequired
	}
	for _, m := range r.ConversationHistory {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
		}
	}
	return nil
}

// SendResponse always carries a displayable assistant turn. Success is false
// when the text is a fallback apology.
type SendResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Config tunes the service.
type Config struct {
	PersistTimeout time.Duration
	Publisher      events.Publisher
	Logger         *zap.Logger
}

// Service handles one conversational exchange per call. It keeps no
// per-visitor state, so calls for different visitors may run concurrently.
type Service struct {
	responder      Responder
	personas       persona.Store
	transcripts    store.TranscriptStore
	publisher      events.Publisher
	persistTimeout time.Duration
	logger         *zap.Logger
}

// NewService wires the exchange handler. responder may be nil when no model
// is configured; every exchange then answers with the localized apology.
func NewService(responder Responder, personas persona.Store, transcripts store.TranscriptStore, cfg Config) *Service {
	timeout := cfg.PersistTimeout
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		responder:      responder,
		personas:       personas,
		transcripts:    transcripts,
		publisher:      publisher,
		persistTimeout: timeout,
		logger:         logger.Named("chat"),
	}
}

// SendMessage classifies the latest user message, asks the model for a reply
// and persists the exchange when a visitor id is present.
func (s *Service) SendMessage(ctx context.Context, req SendRequest) (SendResponse, error) {
	if err := req.Validate(); err != nil {
		return SendResponse{}, err
	}

	code := language.Detect(req.Message)
	if s.responder == nil {
		return s.fallback(code, errors.New("chat model unavailable")), nil
	}

	reply, err := s.responder.GenerateReply(ctx, code, req.ConversationHistory, req.Message)
	return s.complete(ctx, req, code, reply, err), nil
}

// StreamMessage is SendMessage with incremental delivery through onDelta.
func (s *Service) StreamMessage(ctx context.Context, req SendRequest, onDelta func(string)) (SendResponse, error) {
	if err := req.Validate(); err != nil {
		return SendResponse{}, err
	}

	code := language.Detect(req.Message)
	if s.responder == nil {
		return s.fallback(code, errors.New("chat model unavailable")), nil
	}

	reply, err := s.responder.StreamReply(ctx, code, req.ConversationHistory, req.Message, onDelta)
	return s.complete(ctx, req, code, reply, err), nil
}

func (s *Service) complete(ctx context.Context, req SendRequest, code language.Code, reply string, err error) SendResponse {
	if err != nil {
		return s.fallback(code, err)
	}

	if strings.TrimSpace(reply) == "" {
		reply = s.personas.Resolve(code).EmptyReply
	}

	if req.VisitorID != "" {
		full := req.ConversationHistory.Append(
			chat.NewMessage(chat.RoleUser, req.Message),
			chat.NewMessage(chat.RoleAssistant, reply),
		)
		s.persist(ctx, req.VisitorID, full)
	}

	return SendResponse{Message: reply, Success: true}
}

func (s *Service) fallback(code language.Code, cause error) SendResponse {
	s.logger.Warn("model invocation failed, answering with apology",
		zap.String("language", string(code)),
		zap.Error(cause))
	return SendResponse{Message: s.personas.Resolve(code).Apology, Success: false}
}

// persist writes the transcript on a context detached from the request so a
// client hanging up does not abort the write. Failures are logged only.
func (s *Service) persist(ctx context.Context, visitorID string, transcript chat.Transcript) {
	if s.transcripts == nil {
		return
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	if err := s.transcripts.Persist(persistCtx, visitorID, transcript); err != nil {
		s.logger.Error("failed to save chat conversation",
			zap.String("visitor_id", visitorID),
			zap.Error(err))
		return
	}

	evt := events.NewConversationPersisted(visitorID, transcript)
	if err := s.publisher.PublishConversationPersisted(persistCtx, evt); err != nil {
		s.logger.Warn("failed to publish conversation event",
			zap.String("visitor_id", visitorID),
			zap.Error(err))
	}
}
