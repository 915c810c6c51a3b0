package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/analysis/language"
	"github.com/eventsastudio/concierge/backend/internal/model/chat"
)

// Options tunes the model service.
type Options struct {
	Streaming bool
	Logger    *zap.Logger
}

// Service invokes the chat model through a template -> model chain.
type Service struct {
	chain     compose.Runnable[map[string]any, *schema.Message]
	prompts   *PromptManager
	streaming bool
	logger    *zap.Logger
}

// NewService compiles the chat chain around chatModel.
func NewService(ctx context.Context, chatModel model.ChatModel, prompts *PromptManager, opts Options) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(prompts.Template())
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		chain:     runnable,
		prompts:   prompts,
		streaming: opts.Streaming,
		logger:    logger.Named("ai"),
	}, nil
}

// StreamingEnabled reports whether replies are streamed from the model.
func (s *Service) StreamingEnabled() bool {
	return s.streaming
}

// GenerateReply returns the model completion for one user turn.
func (s *Service) GenerateReply(ctx context.Context, code language.Code, prior chat.Transcript, userMessage string) (string, error) {
	input := s.prompts.BuildChainInput(code, prior, userMessage)

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", nil
	}

	s.logger.Debug("generated response",
		zap.String("language", string(code)),
		zap.Int("history", len(prior)),
		zap.Int("length", len(response.Content)))
	return response.Content, nil
}

// StreamReply streams the completion, calling onDelta for every non-empty chunk,
// and returns the concatenated reply. With streaming disabled the whole reply
// is delivered as a single delta.
func (s *Service) StreamReply(ctx context.Context, code language.Code, prior chat.Transcript, userMessage string, onDelta func(string)) (string, error) {
	if !s.streaming {
		reply, err := s.GenerateReply(ctx, code, prior, userMessage)
		if err == nil && reply != "" && onDelta != nil {
			onDelta(reply)
		}
		return reply, err
	}

	input := s.prompts.BuildChainInput(code, prior, userMessage)
	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to stream AI chain output: %w", err)
	}
	defer stream.Close()

	var builder strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", fmt.Errorf("failed to receive AI chunk: %w", recvErr)
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		builder.WriteString(chunk.Content)
		if onDelta != nil {
			onDelta(chunk.Content)
		}
	}

	s.logger.Debug("streamed response",
		zap.String("language", string(code)),
		zap.Int("length", builder.Len()))
	return builder.String(), nil
}
