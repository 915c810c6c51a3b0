package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestCORSPreflight(t *testing.T) {
	resp := httptest.NewRecorder()
	CORS(ok).ServeHTTP(resp, httptest.NewRequest(http.MethodOptions, "/api/chat/send", nil))

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing allow-origin header")
	}
}

func TestBearerToken(t *testing.T) {
	h := BearerToken("s3cret")(ok)

	cases := map[string]int{
		"":              http.StatusUnauthorized,
		"Bearer wrong":  http.StatusUnauthorized,
		"s3cret":        http.StatusUnauthorized,
		"Bearer s3cret": http.StatusTeapot,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/conversations", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Errorf("header %q: expected %d, got %d", header, want, resp.Code)
		}
	}
}

func TestBearerTokenDisabled(t *testing.T) {
	resp := httptest.NewRecorder()
	BearerToken("")(ok).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusTeapot {
		t.Fatalf("expected passthrough, got %d", resp.Code)
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	resp := httptest.NewRecorder()
	AccessLog(zap.New(core))(ok).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["path"] != "/api/health" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}
