package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eventsastudio/concierge/backend/internal/model/persona"
	"github.com/eventsastudio/concierge/backend/internal/service/ai"
	chatService "github.com/eventsastudio/concierge/backend/internal/service/chat"
	"github.com/eventsastudio/concierge/backend/internal/store"
	"github.com/eventsastudio/concierge/backend/internal/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	personas := persona.NewMemoryStore(persona.Seed())
	llm, err := ai.NewService(context.Background(), testutil.NewFakeChatModel("Hello from Marrakech"), ai.NewPromptManager(personas, ai.HistoryWindow{}), ai.Options{})
	if err != nil {
		t.Fatalf("ai.NewService err: %v", err)
	}
	transcripts := store.NewMemoryStore()
	return NewRouter(Dependencies{
		Personas:    personas,
		Chat:        chatService.NewService(llm, personas, transcripts, chatService.Config{}),
		Transcripts: transcripts,
		AdminToken:  "token",
	})
}

func TestHealth(t *testing.T) {
	resp := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestSendThenAdminSeesConversation(t *testing.T) {
	r := newTestRouter(t)

	body, _ := json.Marshal(map[string]any{"message": "Hello", "visitorId": "visitor_1_abc"})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/chat/send", bytes.NewReader(body)))
	if resp.Code != http.StatusOK {
		t.Fatalf("send: expected 200, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/conversations/visitor_1_abc", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/conversations/visitor_1_abc", nil)
	req.Header.Set("Authorization", "Bearer token")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.Code)
	}
}
