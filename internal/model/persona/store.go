package persona

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eventsastudio/concierge/backend/internal/analysis/language"
)

// Store exposes localized persona lookup.
type Store interface {
	List() []Persona
	FindByLanguage(code language.Code) (Persona, bool)
	// Resolve returns the persona for code, falling back to the default language.
	Resolve(code language.Code) Persona
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the configured personas.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByLanguage looks up the persona for a language code.
func (s *MemoryStore) FindByLanguage(code language.Code) (Persona, bool) {
	for _, item := range s.items {
		if item.Language == code {
			return item, true
		}
	}
	return Persona{}, false
}

// Resolve never fails: unknown languages use the default persona, and an empty
// store falls back to the built-in seed.
func (s *MemoryStore) Resolve(code language.Code) Persona {
	if p, ok := s.FindByLanguage(code); ok {
		return p
	}
	if p, ok := s.FindByLanguage(language.Default); ok {
		return p
	}
	return Seed()[0]
}

type personaFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadFile reads persona overrides from a YAML file and merges them over base.
// Empty fields in the file keep the base value.
func LoadFile(path string, base []Persona) ([]Persona, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}

	var file personaFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse persona file %s: %w", path, err)
	}

	merged := append([]Persona(nil), base...)
	for _, override := range file.Personas {
		code, ok := language.Parse(string(override.Language))
		if !ok {
			return nil, fmt.Errorf("persona file %s: unsupported language %q", path, override.Language)
		}
		override.Language = code

		idx := indexOf(merged, code)
		if idx < 0 {
			merged = append(merged, override)
			continue
		}
		merged[idx] = mergePersona(merged[idx], override)
	}
	return merged, nil
}

func indexOf(items []Persona, code language.Code) int {
	for i, item := range items {
		if item.Language == code {
			return i
		}
	}
	return -1
}

func mergePersona(base, override Persona) Persona {
	pick := func(current, next string) string {
		if strings.TrimSpace(next) == "" {
			return current
		}
		return next
	}
	base.Name = pick(base.Name, override.Name)
	base.SystemPrompt = pick(base.SystemPrompt, override.SystemPrompt)
	base.Greeting = pick(base.Greeting, override.Greeting)
	base.Apology = pick(base.Apology, override.Apology)
	base.EmptyReply = pick(base.EmptyReply, override.EmptyReply)
	return base
}
