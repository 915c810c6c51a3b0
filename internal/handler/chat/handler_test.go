package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/eventsastudio/concierge/backend/internal/model/persona"
	"github.com/eventsastudio/concierge/backend/internal/service/ai"
	chatservice "github.com/eventsastudio/concierge/backend/internal/service/chat"
	"github.com/eventsastudio/concierge/backend/internal/testutil"
)

func setupRouter(t *testing.T, fake *testutil.FakeChatModel) (*chi.Mux, *testutil.MockStore) {
	t.Helper()
	personas := persona.NewMemoryStore(persona.Seed())
	llm, err := ai.NewService(context.Background(), fake, ai.NewPromptManager(personas, ai.HistoryWindow{}), ai.Options{})
	if err != nil {
		t.Fatalf("ai.NewService err: %v", err)
	}
	store := testutil.NewMockStore()
	handler := New(chatservice.NewService(llm, personas, store, chatservice.Config{}), nil)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, store
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestSendReturnsReply(t *testing.T) {
	r, store := setupRouter(t, testutil.NewFakeChatModel("We would love to help."))

	resp := postJSON(r, "/chat/send", map[string]any{
		"message":             "Do you do weddings?",
		"conversationHistory": []map[string]string{{"id": "0", "role": "assistant", "content": "Hello!"}},
		"visitorId":           "visitor_1_abc",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out chatservice.SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if !out.Success || out.Message != "We would love to help." {
		t.Fatalf("unexpected response: %+v", out)
	}
	if store.Calls() != 1 {
		t.Fatalf("expected one persist, got %d", store.Calls())
	}
}

func TestSendMissingMessage(t *testing.T) {
	r, _ := setupRouter(t, testutil.NewFakeChatModel("unused"))

	resp := postJSON(r, "/chat/send", map[string]any{"message": ""})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSendInvalidRole(t *testing.T) {
	r, _ := setupRouter(t, testutil.NewFakeChatModel("unused"))

	resp := postJSON(r, "/chat/send", map[string]any{
		"message":             "hi",
		"conversationHistory": []map[string]string{{"role": "robot", "content": "beep"}},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSendInvalidBody(t *testing.T) {
	r, _ := setupRouter(t, testutil.NewFakeChatModel("unused"))

	req := httptest.NewRequest(http.MethodPost, "/chat/send", bytes.NewBufferString("{"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSendModelFailureIsStillOK(t *testing.T) {
	fake := testutil.NewFakeChatModel("")
	fake.Err = errors.New("rate limited")
	r, _ := setupRouter(t, fake)

	resp := postJSON(r, "/chat/send", map[string]any{"message": "Hello"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out chatservice.SendResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if out.Success || out.Message != persona.Seed()[0].Apology {
		t.Fatalf("unexpected response: %+v", out)
	}
}
