package persona

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/eventsastudio/concierge/backend/internal/model/persona"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(persona.NewMemoryStore(persona.Seed())).RegisterRoutes(r)
	return r
}

func TestListPersonasHidesSystemPrompt(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/personas", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "Respond in English") {
		t.Fatal("system prompt must not be exposed")
	}

	var items []persona.Persona
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 personas, got %d", len(items))
	}
}

func TestGetPersonaByTag(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/personas/fr-FR", nil))

	var p persona.Persona
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if p.Language != "fr" || !strings.HasPrefix(p.Greeting, "Bonjour") {
		t.Fatalf("unexpected persona: %+v", p)
	}

	resp = httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/personas/zh", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
