package ai

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/eventsastudio/concierge/backend/internal/analysis/language"
	"github.com/eventsastudio/concierge/backend/internal/model/chat"
	"github.com/eventsastudio/concierge/backend/internal/model/persona"
)

// HistoryWindow bounds how much prior conversation is forwarded to the model.
// Zero values mean unbounded.
type HistoryWindow struct {
	MaxTurns int
	MaxChars int
}

// Unbounded reports whether the window forwards the full history.
func (w HistoryWindow) Unbounded() bool {
	return w.MaxTurns <= 0 && w.MaxChars <= 0
}

// Apply drops the oldest turns until the window constraints hold.
func (w HistoryWindow) Apply(turns chat.Transcript) chat.Transcript {
	if w.Unbounded() || len(turns) == 0 {
		return turns
	}

	start := 0
	if w.MaxTurns > 0 && len(turns) > w.MaxTurns {
		start = len(turns) - w.MaxTurns
	}

	if w.MaxChars > 0 {
		total := 0
		for _, turn := range turns[start:] {
			total += utf8.RuneCountInString(turn.Content)
		}
		for start < len(turns) && total > w.MaxChars {
			total -= utf8.RuneCountInString(turns[start].Content)
			start++
		}
	}

	return turns[start:]
}

// PromptManager composes the localized instruction context sent to the model.
type PromptManager struct {
	personas persona.Store
	window   HistoryWindow
	template *prompt.DefaultChatTemplate
}

// NewPromptManager creates a prompt manager over the given persona templates.
func NewPromptManager(personas persona.Store, window HistoryWindow) *PromptManager {
	return &PromptManager{
		personas: personas,
		window:   window,
		template: prompt.FromMessages(
			schema.FString,
			schema.SystemMessage("{system}"),
			schema.MessagesPlaceholder("history", true),
			schema.UserMessage("{query}"),
		),
	}
}

// Template exposes the chat template so it can be placed in a chain.
func (pm *PromptManager) Template() prompt.ChatTemplate {
	return pm.template
}

// Persona returns the persona used for a language.
func (pm *PromptManager) Persona(code language.Code) persona.Persona {
	return pm.personas.Resolve(code)
}

// BuildSystemPrompt returns the localized system instructions for code.
func (pm *PromptManager) BuildSystemPrompt(code language.Code) string {
	return pm.personas.Resolve(code).SystemPrompt
}

// BuildChainInput produces the template variables for one turn.
func (pm *PromptManager) BuildChainInput(code language.Code, prior chat.Transcript, userMessage string) map[string]any {
	return map[string]any{
		"system":  pm.BuildSystemPrompt(code),
		"history": buildHistoryMessages(pm.window.Apply(prior)),
		"query":   userMessage,
	}
}

// Compose renders [system, prior..., user] for inspection or direct model calls.
func (pm *PromptManager) Compose(ctx context.Context, code language.Code, prior chat.Transcript, userMessage string) ([]*schema.Message, error) {
	messages, err := pm.template.Format(ctx, pm.BuildChainInput(code, prior, userMessage))
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}
	return messages, nil
}

func buildHistoryMessages(turns chat.Transcript) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		case chat.RoleSystem:
			history = append(history, schema.SystemMessage(turn.Content))
		}
	}
	return history
}
