package transcript_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eventsastudio/concierge/backend/internal/analysis/language"
	"github.com/eventsastudio/concierge/backend/internal/device"
	"github.com/eventsastudio/concierge/backend/internal/model/chat"
	"github.com/eventsastudio/concierge/backend/internal/transcript"
)

type readOnlyStorage struct{ *device.MemoryStorage }

func (readOnlyStorage) Set(string, string) error { return errors.New("quota exceeded") }

func TestAppendRoundTrip(t *testing.T) {
	cache := transcript.NewCache(device.NewMemoryStorage(), nil)

	greeting := chat.Message{ID: chat.GreetingID, Role: chat.RoleAssistant, Content: "Hello!"}
	if _, err := cache.Append("v1", greeting); err != nil {
		t.Fatalf("Append err: %v", err)
	}
	user := chat.NewMessage(chat.RoleUser, "Do you cover weddings?")
	got, err := cache.Append("v1", user)
	if err != nil {
		t.Fatalf("Append err: %v", err)
	}

	want := chat.Transcript{greeting, user}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("append result mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, cache.Load("v1")); diff != "" {
		t.Fatalf("reload mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCorruptedBlobIsEmpty(t *testing.T) {
	storage := device.NewMemoryStorage()
	_ = storage.Set(transcript.Key("v1"), "{not json")

	got := transcript.NewCache(storage, nil).Load("v1")
	if len(got) != 0 {
		t.Fatalf("expected empty transcript, got %+v", got)
	}
}

func TestLoadMalformedEntriesIsEmpty(t *testing.T) {
	cases := map[string]string{
		"missing role":       `[{"content":"hi"}]`,
		"unknown role":       `[{"role":"tool","content":"hi"}]`,
		"empty user message": `[{"id":"0","role":"assistant","content":"Hello"},{"role":"user","content":"  "}]`,
	}
	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			storage := device.NewMemoryStorage()
			_ = storage.Set(transcript.Key("v1"), blob)

			if got := transcript.NewCache(storage, nil).Load("v1"); len(got) != 0 {
				t.Fatalf("expected empty transcript, got %+v", got)
			}
		})
	}
}

func TestAppendReturnsTranscriptWhenWriteFails(t *testing.T) {
	cache := transcript.NewCache(readOnlyStorage{device.NewMemoryStorage()}, nil)

	got, err := cache.Append("v1", chat.NewMessage(chat.RoleUser, "hi"))
	if err == nil {
		t.Fatal("expected write error")
	}
	if len(got) != 1 || got[0].Content != "hi" {
		t.Fatalf("unexpected transcript: %+v", got)
	}
}

func TestClearAndVisitors(t *testing.T) {
	storage := device.NewMemoryStorage()
	cache := transcript.NewCache(storage, nil)

	for _, id := range []string{"v2", "v1"} {
		if _, err := cache.Append(id, chat.NewMessage(chat.RoleUser, "hi")); err != nil {
			t.Fatalf("Append err: %v", err)
		}
	}
	_ = storage.Set("events_visitor_id", "v1")

	ids, err := cache.Visitors()
	if err != nil {
		t.Fatalf("Visitors err: %v", err)
	}
	if diff := cmp.Diff([]string{"v1", "v2"}, ids); diff != "" {
		t.Fatalf("visitors mismatch (-want +got):\n%s", diff)
	}

	if err := cache.Clear("v1"); err != nil {
		t.Fatalf("Clear err: %v", err)
	}
	if len(cache.Load("v1")) != 0 {
		t.Fatal("expected empty transcript after clear")
	}
	if len(cache.Load("v2")) != 1 {
		t.Fatal("clear must not touch other visitors")
	}
}

func TestLanguageRoundTrip(t *testing.T) {
	cache := transcript.NewCache(device.NewMemoryStorage(), nil)

	if got := cache.LoadLanguage(); got != language.Default {
		t.Fatalf("expected default language, got %q", got)
	}
	if err := cache.SaveLanguage(language.Arabic); err != nil {
		t.Fatalf("SaveLanguage err: %v", err)
	}
	if got := cache.LoadLanguage(); got != language.Arabic {
		t.Fatalf("expected ar, got %q", got)
	}
}
