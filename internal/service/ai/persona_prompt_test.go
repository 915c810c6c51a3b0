package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/google/go-cmp/cmp"

	"github.com/eventsastudio/concierge/backend/internal/analysis/language"
	"github.com/eventsastudio/concierge/backend/internal/model/chat"
	"github.com/eventsastudio/concierge/backend/internal/model/persona"
)

type turn struct {
	Role    schema.RoleType
	Content string
}

func flatten(msgs []*schema.Message) []turn {
	out := make([]turn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, turn{Role: m.Role, Content: m.Content})
	}
	return out
}

func newManager(window HistoryWindow) *PromptManager {
	return NewPromptManager(persona.NewMemoryStore(persona.Seed()), window)
}

func TestComposeOrdersSystemHistoryUser(t *testing.T) {
	pm := newManager(HistoryWindow{})
	prior := chat.Transcript{
		{Role: chat.RoleAssistant, Content: "Hello! How can I help?"},
		{Role: chat.RoleUser, Content: "A wedding"},
		{Role: chat.RoleAssistant, Content: "Wonderful, when?"},
	}

	msgs, err := pm.Compose(context.Background(), language.English, prior, "Next June")
	if err != nil {
		t.Fatalf("Compose err: %v", err)
	}

	want := []turn{
		{schema.System, pm.BuildSystemPrompt(language.English)},
		{schema.Assistant, "Hello! How can I help?"},
		{schema.User, "A wedding"},
		{schema.Assistant, "Wonderful, when?"},
		{schema.User, "Next June"},
	}
	if diff := cmp.Diff(want, flatten(msgs)); diff != "" {
		t.Fatalf("unexpected prompt (-want +got):\n%s", diff)
	}
}

func TestComposeSelectsLocalizedTemplate(t *testing.T) {
	pm := newManager(HistoryWindow{})
	ctx := context.Background()

	cases := map[language.Code]string{
		language.English: "Respond in English.",
		language.French:  "Répondez en français.",
		language.Arabic:  "رد باللغة العربية.",
	}
	for code, marker := range cases {
		msgs, err := pm.Compose(ctx, code, nil, "hi")
		if err != nil {
			t.Fatalf("Compose(%s) err: %v", code, err)
		}
		if len(msgs) != 2 {
			t.Fatalf("expected system+user for empty history, got %d", len(msgs))
		}
		if !strings.Contains(msgs[0].Content, marker) {
			t.Fatalf("template for %s missing %q", code, marker)
		}
	}
}

func TestComposeUnknownLanguageUsesEnglish(t *testing.T) {
	pm := newManager(HistoryWindow{})
	msgs, err := pm.Compose(context.Background(), language.Code("xx"), nil, "hi")
	if err != nil {
		t.Fatalf("Compose err: %v", err)
	}
	if msgs[0].Content != pm.BuildSystemPrompt(language.English) {
		t.Fatal("expected english template fallback")
	}
}

func TestComposeKeepsBracesInUserContent(t *testing.T) {
	pm := newManager(HistoryWindow{})
	msgs, err := pm.Compose(context.Background(), language.English, nil, "budget {about 5000}")
	if err != nil {
		t.Fatalf("Compose err: %v", err)
	}
	if got := msgs[len(msgs)-1].Content; got != "budget {about 5000}" {
		t.Fatalf("user content altered: %q", got)
	}
}

func TestHistoryWindowApply(t *testing.T) {
	turns := chat.Transcript{
		{Role: chat.RoleUser, Content: "aaaa"},
		{Role: chat.RoleAssistant, Content: "bbbb"},
		{Role: chat.RoleUser, Content: "cc"},
	}

	if got := (HistoryWindow{}).Apply(turns); len(got) != 3 {
		t.Fatalf("unbounded window dropped turns: %d", len(got))
	}
	if got := (HistoryWindow{MaxTurns: 2}).Apply(turns); len(got) != 2 || got[0].Content != "bbbb" {
		t.Fatalf("unexpected turn window: %+v", got)
	}
	if got := (HistoryWindow{MaxChars: 6}).Apply(turns); len(got) != 2 || got[0].Content != "bbbb" {
		t.Fatalf("unexpected char window: %+v", got)
	}
	if got := (HistoryWindow{MaxChars: 1}).Apply(turns); len(got) != 0 {
		t.Fatalf("expected every turn dropped, got %d", len(got))
	}
}
